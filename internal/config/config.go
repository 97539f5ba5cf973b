package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "MISINFO_SENTRY_CONFIG"
	databasePathEnv  = "DATABASE_PATH"
	classifierKeyEnv = "GROQ_API_KEY"
	classifierMdlEnv = "GROQ_MODEL"
	youtubeKeyEnv    = "YOUTUBE_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Database    DatabaseConfig    `yaml:"database"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Forensics   ForensicsConfig   `yaml:"forensics"`
	Fusion      FusionConfig      `yaml:"fusion"`
	Keywords    []string          `yaml:"keywords"`
	Credibility CredibilityConfig `yaml:"credibility"`
	YouTube     YouTubeConfig     `yaml:"youtube"`
	Feeds       []FeedConfig      `yaml:"feeds"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the SQLite file backing the content log.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines the pause between ingestion passes.
type SchedulerConfig struct {
	IntervalSeconds int `yaml:"intervalSeconds"`
}

// Interval resolves the configured pause, defaulting to 30s.
func (s SchedulerConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

// ClassifierConfig defines how to contact the classification gateway
// (an OpenAI-compatible chat-completions endpoint).
type ClassifierConfig struct {
	Endpoint               string `yaml:"endpoint"`
	Model                  string `yaml:"model"`
	APIKey                 string `yaml:"apiKey"`
	RequestTimeoutSeconds  int    `yaml:"requestTimeoutSeconds"`
	MinRequestIntervalMsec int    `yaml:"minRequestIntervalMsec"`
	CooldownSeconds        int    `yaml:"cooldownSeconds"`
}

// RequestTimeout bounds a single gateway call, defaulting to 10s.
func (c ClassifierConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// MinRequestInterval paces successive gateway calls, defaulting to 1s.
func (c ClassifierConfig) MinRequestInterval() time.Duration {
	if c.MinRequestIntervalMsec <= 0 {
		return time.Second
	}
	return time.Duration(c.MinRequestIntervalMsec) * time.Millisecond
}

// Cooldown is the process-wide pause after quota exhaustion, default 60s.
func (c ClassifierConfig) Cooldown() time.Duration {
	if c.CooldownSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.CooldownSeconds) * time.Second
}

// ForensicsConfig wires the media inspection gateway.
type ForensicsConfig struct {
	Enabled               bool `yaml:"enabled"`
	RequestTimeoutSeconds int  `yaml:"requestTimeoutSeconds"`
}

// RequestTimeout bounds a media fetch, defaulting to 10s.
func (f ForensicsConfig) RequestTimeout() time.Duration {
	if f.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(f.RequestTimeoutSeconds) * time.Second
}

// FusionConfig carries the risk fusion weights and verdict thresholds.
// Mode "category" records the classifier's own label as the verdict;
// mode "fused" recomputes the verdict from the weighted sub-scores.
type FusionConfig struct {
	Mode              string  `yaml:"mode"`
	SourceWeight      float64 `yaml:"sourceWeight"`
	PanicWeight       float64 `yaml:"panicWeight"`
	MediaWeight       float64 `yaml:"mediaWeight"`
	HighRiskThreshold float64 `yaml:"highRiskThreshold"`
	CautionThreshold  float64 `yaml:"cautionThreshold"`
}

// Fused reports whether verdicts come from threshold fusion.
func (f FusionConfig) Fused() bool {
	return f.Mode == "fused"
}

// CredibilityConfig seeds the source trust table.
type CredibilityConfig struct {
	Seeds map[string]float64 `yaml:"seeds"`
}

// YouTubeConfig wires the video statistics API.
type YouTubeConfig struct {
	APIKey string `yaml:"apiKey"`
}

// ViralityConfig is the per-feed fallback estimate used when a feed item
// carries no usable publish timestamp.
type ViralityConfig struct {
	Divisor float64 `yaml:"divisor"`
	Flat    float64 `yaml:"flat"`
}

// FeedConfig describes a single feed with its scanner strategy.
type FeedConfig struct {
	Name     string            `yaml:"name"`
	Scanner  string            `yaml:"scanner"`
	Limit    int               `yaml:"limit"`
	Options  map[string]string `yaml:"options"`
	Virality ViralityConfig    `yaml:"virality"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = defaultConfig().Keywords
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(classifierKeyEnv); v != "" {
		c.Classifier.APIKey = v
	}

	if v := os.Getenv(classifierMdlEnv); v != "" {
		c.Classifier.Model = v
	}

	if v := os.Getenv(youtubeKeyEnv); v != "" {
		c.YouTube.APIKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scheduler.IntervalSeconds > 0 {
		base.Scheduler = override.Scheduler
	}

	if override.Classifier.Endpoint != "" {
		base.Classifier.Endpoint = override.Classifier.Endpoint
	}
	if override.Classifier.Model != "" {
		base.Classifier.Model = override.Classifier.Model
	}
	if override.Classifier.APIKey != "" {
		base.Classifier.APIKey = override.Classifier.APIKey
	}
	if override.Classifier.RequestTimeoutSeconds > 0 {
		base.Classifier.RequestTimeoutSeconds = override.Classifier.RequestTimeoutSeconds
	}
	if override.Classifier.MinRequestIntervalMsec > 0 {
		base.Classifier.MinRequestIntervalMsec = override.Classifier.MinRequestIntervalMsec
	}
	if override.Classifier.CooldownSeconds > 0 {
		base.Classifier.CooldownSeconds = override.Classifier.CooldownSeconds
	}

	if override.Forensics.Enabled {
		base.Forensics.Enabled = true
	}
	if override.Forensics.RequestTimeoutSeconds > 0 {
		base.Forensics.RequestTimeoutSeconds = override.Forensics.RequestTimeoutSeconds
	}

	if override.Fusion.Mode != "" {
		base.Fusion.Mode = override.Fusion.Mode
	}
	if override.Fusion.SourceWeight > 0 || override.Fusion.PanicWeight > 0 || override.Fusion.MediaWeight > 0 {
		base.Fusion.SourceWeight = override.Fusion.SourceWeight
		base.Fusion.PanicWeight = override.Fusion.PanicWeight
		base.Fusion.MediaWeight = override.Fusion.MediaWeight
	}
	if override.Fusion.HighRiskThreshold > 0 {
		base.Fusion.HighRiskThreshold = override.Fusion.HighRiskThreshold
	}
	if override.Fusion.CautionThreshold > 0 {
		base.Fusion.CautionThreshold = override.Fusion.CautionThreshold
	}

	if len(override.Keywords) > 0 {
		base.Keywords = override.Keywords
	}

	if len(override.Credibility.Seeds) > 0 {
		base.Credibility = override.Credibility
	}

	if override.YouTube.APIKey != "" {
		base.YouTube = override.YouTube
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{Path: "misinfo_sentry.db"},
		Scheduler: SchedulerConfig{IntervalSeconds: 30},
		Classifier: ClassifierConfig{
			Endpoint: "https://api.groq.com/openai/v1/chat/completions",
			Model:    "llama-3.3-70b-versatile",
		},
		Forensics: ForensicsConfig{Enabled: true},
		Fusion: FusionConfig{
			Mode:              "category",
			SourceWeight:      0.3,
			PanicWeight:       0.3,
			MediaWeight:       0.4,
			HighRiskThreshold: 0.7,
			CautionThreshold:  0.4,
		},
		Keywords: []string{
			"huge", "fake", "political", "blast", "explosion", "arrest",
			"scam", "urgent", "virus", "riot", "protest", "deepfake",
			"AI generated", "leaked", "scandal", "exposed", "hack",
			"cyber", "war", "market crash",
		},
		Credibility: CredibilityConfig{
			Seeds: map[string]float64{
				"bbc.com":                 0.95,
				"random-whatsapp-forward": 0.10,
			},
		},
		Feeds: []FeedConfig{
			{
				Name:    "google-trends",
				Scanner: "trends",
				Limit:   3,
				Options: map[string]string{
					"rssUrl": "https://trends.google.com/trends/trendingsearches/daily/rss?geo=IN",
				},
				Virality: ViralityConfig{Divisor: 24},
			},
			{
				Name:     "hacker-news",
				Scanner:  "hackernews",
				Limit:    5,
				Virality: ViralityConfig{Divisor: 10},
			},
			{
				Name:     "google-news",
				Scanner:  "newsrss",
				Limit:    2,
				Virality: ViralityConfig{Flat: 5000},
			},
			{
				Name:    "youtube",
				Scanner: "youtube",
				Limit:   5,
			},
		},
	}
}
