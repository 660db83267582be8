package config

// EngineConfig configures the detection and matching pipeline.
type EngineConfig struct {
	AutoFillThreshold float64 `yaml:"auto_fill_threshold"` // 0..1, decision layer cut-off
	MaxFieldsPerPage  int     `yaml:"max_fields_per_page"`
	MaxRecords        int     `yaml:"max_records"`
	LabelCacheSize    int     `yaml:"label_cache_size"` // positional label memo bound
	UseAI             bool    `yaml:"use_ai"`
}
