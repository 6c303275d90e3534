package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = "kaimono/records.jsonl"
	}
	if cfg.Answer.ConfidenceThreshold == 0 {
		cfg.Answer.ConfidenceThreshold = 0.2
	}
	if cfg.Answer.DefaultK == 0 {
		cfg.Answer.DefaultK = 10
	}
}
