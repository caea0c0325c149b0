package types

// Config is the persisted user configuration. JSON keys are camelCase per
// the on-disk contract; the file lives at config.json in the platform's
// per-user config directory.
type Config struct {
	IP                  string `json:"ip"`
	Port                uint16 `json:"port"`
	UseSecureConnection bool   `json:"useSecureConnection"`
	AutoAttachEnabled   bool   `json:"autoAttachEnabled"`
	StartInTray         bool   `json:"startInTray"`
}

// DefaultConfig is used when no config file exists yet.
func DefaultConfig() Config {
	return Config{
		IP:                  "127.0.0.1",
		Port:                46821,
		UseSecureConnection: false,
		AutoAttachEnabled:   false,
		StartInTray:         false,
	}
}
