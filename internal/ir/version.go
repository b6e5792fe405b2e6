package ir

// Version constants for stored records and the engine.
const (
	// SchemaVersion is the version of the stored case JSON shape.
	SchemaVersion = "1"

	// EngineVersion is the fascicolo engine version.
	EngineVersion = "0.1.0"
)
