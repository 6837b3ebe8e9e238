package model

import "time"

// Config is the full pipeline configuration. Values come from (highest to
// lowest priority) CLI flags, TRIPLETFORGE_* environment variables, the
// config file, and DefaultConfig.
type Config struct {
	KB        KBConfig        `yaml:"kb" mapstructure:"kb"`
	Expansion ExpansionConfig `yaml:"expansion" mapstructure:"expansion"`
	Process   ProcessConfig   `yaml:"process" mapstructure:"process"`
	Split     SplitConfig     `yaml:"split" mapstructure:"split"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Embed     EmbedConfig     `yaml:"embed" mapstructure:"embed"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// KBConfig configures the remote knowledge-base client.
type KBConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	CheckRobots       bool          `yaml:"check_robots" mapstructure:"check_robots"`
	HTTPProxy         string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// ExpansionConfig configures the batch expansion engine.
type ExpansionConfig struct {
	Hops          int    `yaml:"hops" mapstructure:"hops"`
	TargetSize    int    `yaml:"target_size" mapstructure:"target_size"`
	BatchSize     int    `yaml:"batch_size" mapstructure:"batch_size"`
	MaxWorkers    int    `yaml:"max_workers" mapstructure:"max_workers"`
	CheckpointDir string `yaml:"checkpoint_dir" mapstructure:"checkpoint_dir"`
}

// ProcessConfig configures triplet post-processing.
type ProcessConfig struct {
	HandleInverses   bool `yaml:"handle_inverses" mapstructure:"handle_inverses"`
	PruningThreshold int  `yaml:"pruning_threshold" mapstructure:"pruning_threshold"`
}

// SplitConfig configures the train/test/valid split.
type SplitConfig struct {
	TrainRatio     float64 `yaml:"train_ratio" mapstructure:"train_ratio"`
	TestValidRatio float64 `yaml:"test_valid_ratio" mapstructure:"test_valid_ratio"`
	MinPerSplit    int     `yaml:"min_per_split" mapstructure:"min_per_split"`
	Seed           int64   `yaml:"seed" mapstructure:"seed"`
}

// CacheConfig configures the KB response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// EmbedConfig configures the relation-embedding client.
type EmbedConfig struct {
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// OutputConfig holds shared output knobs.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults. They match the knobs the
// original expansion runs were tuned with.
func DefaultConfig() *Config {
	return &Config{
		KB: KBConfig{
			BaseURL:           "https://www.wikidata.org/w/api.php",
			UserAgent:         "tripletforge/0.1 (+https://github.com/ottersome/tripletforge)",
			Timeout:           5 * time.Second,
			MaxRetries:        3,
			RequestsPerSecond: 10,
			BurstSize:         20,
			CheckRobots:       true,
		},
		Expansion: ExpansionConfig{
			Hops:          1,
			TargetSize:    15000,
			BatchSize:     512,
			MaxWorkers:    20,
			CheckpointDir: "./checkpoints",
		},
		Process: ProcessConfig{
			HandleInverses:   true,
			PruningThreshold: 2,
		},
		Split: SplitConfig{
			TrainRatio:     0.8,
			TestValidRatio: 0.5,
			MinPerSplit:    3,
			Seed:           42,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "./.tripletforge-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Embed: EmbedConfig{
			Model:     "text-embedding-3-small",
			BatchSize: 128,
		},
	}
}
