package component

// Component name constants
const (
	ComponentConfig    = "config"
	ComponentLogger    = "logger"
	ComponentTelemetry = "telemetry"
	ComponentEvent     = "event"
	ComponentHealth    = "health"
)
