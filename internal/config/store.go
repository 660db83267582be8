package config

// StoreConfig configures the record store.
type StoreConfig struct {
	// SQLite database path; a .yaml/.yml path selects the read-mostly file store.
	Path string `yaml:"path"`
}
