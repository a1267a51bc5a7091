package formatters

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// priorityKeys are rendered first, in this order, by the human-oriented formatters.
var priorityKeys = []string{
	"component", "node_id", "protocol", "epoch", "request_id",
	"route", "status", "duration", "error",
}

// orderedKeys returns the entry keys with priority keys first and the rest sorted.
func orderedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for _, key := range priorityKeys {
		if _, ok := data[key]; ok {
			keys = append(keys, key)
		}
	}

	rest := make([]string, 0, len(data))
	for key := range data {
		if !slices.Contains(priorityKeys, key) {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)

	return append(keys, rest...)
}

func stringify(value any) string {
	if value == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", value)
}
