package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Log struct {
		Mode string `yaml:"mode"` // "dev" or "prod"
	} `yaml:"log"`

	Database struct {
		URI     string        `yaml:"uri"`
		Name    string        `yaml:"name"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`

	LLM struct {
		Provider string        `yaml:"provider"` // "groq" or "gemini"
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Groq struct {
		ApiKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseUrl"`
	} `yaml:"groq"`

	Gemini struct {
		ApiKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	Media struct {
		PexelsApiKey    string        `yaml:"pexelsApiKey"`
		YoutubeApiKey   string        `yaml:"youtubeApiKey"`
		ProviderTimeout time.Duration `yaml:"providerTimeout"`
		Concurrency     int           `yaml:"concurrency"`
	} `yaml:"media"`

	Generation struct {
		ClaimTTL     time.Duration `yaml:"claimTtl"`
		PollInterval time.Duration `yaml:"pollInterval"`
	} `yaml:"generation"`

	RateLimit struct {
		Requests int           `yaml:"requests"` // per window per user; 0 disables
		Window   time.Duration `yaml:"window"`
	} `yaml:"rateLimit"`
}

// LoadConfig reads the YAML file at path, then lets environment variables
// (optionally from a .env file next to the process) override secrets and
// deployment settings. A missing file is fine when the environment carries
// everything.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; real deployments set the variables directly.
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Groq.ApiKey, "GROQ_API_KEY")
	setString(&c.Groq.Model, "GROQ_MODEL")
	setString(&c.Gemini.ApiKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.Media.PexelsApiKey, "PEXELS_API_KEY")
	setString(&c.Media.YoutubeApiKey, "YOUTUBE_API_KEY")
	setString(&c.Database.URI, "MONGO_URL")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.Log.Mode, "LOG_MODE")

	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// ApplyDefaults fills every unset knob with its production default.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:5174", "http://127.0.0.1:5173"}
	}
	if c.Database.URI == "" {
		c.Database.URI = "mongodb://localhost:27017"
	}
	if c.Database.Name == "" {
		c.Database.Name = "coursegen"
	}
	if c.Database.Timeout <= 0 {
		c.Database.Timeout = 10 * time.Second
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "groq"
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 120 * time.Second
	}
	if c.Groq.Model == "" {
		c.Groq.Model = "llama-3.3-70b-versatile"
	}
	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}
	if c.Media.ProviderTimeout <= 0 {
		c.Media.ProviderTimeout = 10 * time.Second
	}
	if c.Media.Concurrency <= 0 {
		c.Media.Concurrency = 4
	}
	if c.Generation.ClaimTTL <= 0 {
		c.Generation.ClaimTTL = 5 * time.Minute
	}
	if c.Generation.PollInterval <= 0 {
		c.Generation.PollInterval = time.Second
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
