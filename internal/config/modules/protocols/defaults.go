package protocols

// GetDefaults returns the built-in protocol catalogue.
func GetDefaults() Config {
	return Config{
		Catalogue: []ProtocolConfig{
			{Name: "pbft"},
			{Name: "zyzzyva", FastPath: true},
			{Name: "cheapbft"},
			{Name: "sbft", FastPath: true},
			{Name: "hotstuff2", LeaderRotation: true},
			{Name: "prime"},
		},
	}
}
