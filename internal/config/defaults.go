package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/beacon/data/db/services.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/beacon/data/indices/bleve"
	}
	if cfg.Storage.CollectionsPath == "" {
		cfg.Storage.CollectionsPath = "/usr/local/etc/beacon/collections.yaml"
	}
	if cfg.Search.DefaultRadiusMiles == 0 {
		cfg.Search.DefaultRadiusMiles = 15
	}
	if cfg.Search.DefaultPerPage == 0 {
		cfg.Search.DefaultPerPage = 25
	}
	if cfg.Search.MaxPerPage == 0 {
		cfg.Search.MaxPerPage = 100
	}
	if cfg.Search.MaxCandidates == 0 {
		cfg.Search.MaxCandidates = 1000
	}
	if cfg.Search.ScoringWorkers == 0 {
		cfg.Search.ScoringWorkers = 8
	}
	cfg.Ranking.ApplyDefaults()
}
