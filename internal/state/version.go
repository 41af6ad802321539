package state

// Version constants for the persisted state schema.
const (
	// SchemaVersion is the state schema version written by this build.
	SchemaVersion = "1.0.0"

	// LegacySchemaVersion is the pre-release schema still found in older saved records.
	LegacySchemaVersion = "0.9.0"
)
