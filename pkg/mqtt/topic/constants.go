package topic

// Standard MQTT wildcard definitions.
const (
	// Wildcard matches exactly one topic level.
	// Example: "efls/v1/mission/item/+" matches "efls/v1/mission/item/1".
	Wildcard = "+"

	// MultiWildcard matches the current level and all subsequent levels.
	// It must be the last character in the topic filter.
	MultiWildcard = "#"
)
