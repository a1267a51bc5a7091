package metadata

// Default metadata configuration values.
const (
	DefaultNodeID      = "bftbrain-1"
	DefaultEnvironment = "development"
	DefaultRegion      = "local"
)

// GetDefaults returns default metadata configuration.
func GetDefaults() Config {
	return Config{
		NodeID:      DefaultNodeID,
		Environment: DefaultEnvironment,
		Region:      DefaultRegion,
	}
}
