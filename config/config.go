package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Platform PlatformConfig `yaml:"platform"`
	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	API      APIConfig      `yaml:"api"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PipelineConfig holds the knobs of the decision pipeline and the runner loop.
type PipelineConfig struct {
	QueryPhrases        []string `yaml:"query_phrases"`
	QueryType           string   `yaml:"query_type"`
	MaxFetch            int      `yaml:"max_fetch"`
	TotalReplies        int      `yaml:"total_replies"`
	PrimaryRatio        float64  `yaml:"primary_ratio"`
	EngagementFloor     int      `yaml:"engagement_floor"`
	MinReplyScore       int      `yaml:"min_reply_score"`
	ReplyBatchSize      int      `yaml:"reply_batch_size"`
	CooldownDays        int      `yaml:"cooldown_days"`
	IntervalMinutes     int      `yaml:"interval_minutes"`
	SendDelayMinSeconds int      `yaml:"send_delay_min_seconds"`
	SendDelayMaxSeconds int      `yaml:"send_delay_max_seconds"`
}

// PlatformConfig describes the third-party search/post API.
// Credentials are never read from the yaml file.
type PlatformConfig struct {
	BaseURL        string `yaml:"base_url"`
	SessionFile    string `yaml:"session_file"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`

	APIKey      string `yaml:"-"`
	AuthSession string `yaml:"-"`
	Proxy       string `yaml:"-"`
}

// LLMConfig controls the reply drafting model.
// RequestsPerMinute / RequestsPerDay of 0 or less mean no limit.
type LLMConfig struct {
	Provider          string  `yaml:"provider"`
	ModelName         string  `yaml:"model_name"`
	Temperature       float32 `yaml:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
	RequestsPerDay    int     `yaml:"requests_per_day"`
	LandingPage       string  `yaml:"landing_page"`

	APIKey string `yaml:"-"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"` // file | mongo
	DataDir string `yaml:"data_dir"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type KafkaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Topic   string `yaml:"topic"`
	Brokers string `yaml:"-"`
}

type APIConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	c, err := Load(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}
	config = &c
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

// Load reads a yaml config file, fills defaults and applies environment overrides.
// A missing file is not an error: defaults plus environment are enough to run.
func Load(path string) (AppConfig, error) {
	c := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return AppConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return AppConfig{}, err
	}

	c.normalize()
	c.applyEnv()
	return c, nil
}

// Defaults returns the configuration used for keys the yaml file leaves out.
// Keys set explicitly, zero included, win over these values.
func Defaults() AppConfig {
	return AppConfig{
		Logging: LoggingConfig{Level: "info"},
		Pipeline: PipelineConfig{
			QueryType:       "Latest",
			MaxFetch:        100,
			TotalReplies:    20,
			PrimaryRatio:    0.25,
			EngagementFloor: 20,
			MinReplyScore:   2,
			ReplyBatchSize:  10,
			CooldownDays:    7,
			IntervalMinutes: 360,
		},
		Platform: PlatformConfig{
			BaseURL:        "https://api.twitterapi.io",
			SessionFile:    ".auth_session",
			TimeoutSeconds: 30,
		},
		LLM: LLMConfig{
			Provider:    "google",
			ModelName:   "gemini-2.5-flash",
			Temperature: 0.7,
			LandingPage: "https://createagents.online/",
		},
		Storage: StorageConfig{Backend: "file", DataDir: "data"},
		Mongo:   MongoConfig{Database: "replybot"},
		Kafka:   KafkaConfig{Topic: "reply-bot.reply.events"},
		API:     APIConfig{Addr: ":8080"},
	}
}

// normalize restores defaults for keys where an empty or non-positive value
// cannot work.
func (c *AppConfig) normalize() {
	d := Defaults()
	if c.Pipeline.QueryType == "" {
		c.Pipeline.QueryType = d.Pipeline.QueryType
	}
	if c.Pipeline.MaxFetch <= 0 {
		c.Pipeline.MaxFetch = d.Pipeline.MaxFetch
	}
	if c.Pipeline.ReplyBatchSize <= 0 {
		c.Pipeline.ReplyBatchSize = d.Pipeline.ReplyBatchSize
	}
	if c.Platform.BaseURL == "" {
		c.Platform.BaseURL = d.Platform.BaseURL
	}
	if c.Platform.TimeoutSeconds <= 0 {
		c.Platform.TimeoutSeconds = d.Platform.TimeoutSeconds
	}
	if c.LLM.ModelName == "" {
		c.LLM.ModelName = d.LLM.ModelName
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = d.Storage.DataDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv("QUERY_PHRASES"); v != "" {
		c.Pipeline.QueryPhrases = SplitPhrases(v)
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pipeline.IntervalMinutes = n
		}
	}
	c.Platform.APIKey = os.Getenv("API_KEY")
	c.Platform.AuthSession = os.Getenv("AUTH_SESSION")
	c.Platform.Proxy = os.Getenv("WEBSHARE_PROXY")
	c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	c.Kafka.Brokers = os.Getenv("KAFKA_BOOTSTRAP_SERVERS")
}

// Validate reports configuration that would make the runner misbehave.
func (c AppConfig) Validate() error {
	p := c.Pipeline
	var errs []error
	if len(p.QueryPhrases) == 0 {
		errs = append(errs, errors.New("no query phrases configured (pipeline.query_phrases or QUERY_PHRASES)"))
	}
	if p.PrimaryRatio < 0 || p.PrimaryRatio > 1 {
		errs = append(errs, fmt.Errorf("pipeline.primary_ratio must be within [0,1], got %v", p.PrimaryRatio))
	}
	if p.IntervalMinutes <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.interval_minutes must be positive, got %d", p.IntervalMinutes))
	}
	if p.SendDelayMinSeconds < 0 || p.SendDelayMaxSeconds < p.SendDelayMinSeconds {
		errs = append(errs, fmt.Errorf("invalid send delay window [%d,%d]", p.SendDelayMinSeconds, p.SendDelayMaxSeconds))
	}
	switch c.Storage.Backend {
	case "file", "mongo":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}

// SplitPhrases splits a comma separated phrase list, dropping blanks.
func SplitPhrases(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
