package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Notion     NotionConfig     `yaml:"notion"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Output     OutputConfig     `yaml:"output"`
	Watch      WatchConfig      `yaml:"watch"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

type YouTubeConfig struct {
	APIKey     string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	PageSize   int    `yaml:"page_size"`
	OEmbedURL  string `yaml:"oembed_url"`
	WatchURL   string `yaml:"watch_url"`
	ServiceURL string `yaml:"service_url"`
}

type AIConfig struct {
	GeminiAPIKey       string   `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model              string   `yaml:"model"`
	Temperature        *float32 `yaml:"temperature"`
	MaxOutputTokens    int32    `yaml:"max_output_tokens"`
	MaxTranscriptChars int      `yaml:"max_transcript_chars"`
}

type NotionConfig struct {
	APIKey     string             `yaml:"api_key" env:"NOTION_API_KEY"`
	DatabaseID string             `yaml:"database_id" env:"NOTION_DATABASE_ID"`
	BaseURL    string             `yaml:"base_url"`
	Version    string             `yaml:"version"`
	Timezone   string             `yaml:"timezone"`
	Properties NotionPropertyName `yaml:"properties"`
}

// NotionPropertyName maps record fields to the column names of the target database
type NotionPropertyName struct {
	Title      string `yaml:"title"`
	Channel    string `yaml:"channel"`
	URL        string `yaml:"url"`
	AnalyzedAt string `yaml:"analyzed_at"`
	Insights   string `yaml:"insights"`
}

type TranscriptConfig struct {
	PrimaryLanguage  string `yaml:"primary_language"`
	FallbackLanguage string `yaml:"fallback_language"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
}

type OutputConfig struct {
	Dir     string `yaml:"dir"`
	DataDir string `yaml:"data_dir"`
}

type WatchConfig struct {
	Queries       []string `yaml:"queries"`
	MaxResults    int      `yaml:"max_results"`
	Schedule      string   `yaml:"schedule"`
	RetentionDays int      `yaml:"retention_days"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Load reads .env, the optional YAML config file, and the environment.
// A missing file is fine: the CLI runs on env vars alone.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case os.IsNotExist(err):
		// environment only
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Notion.APIKey == "" {
		c.Notion.APIKey = os.Getenv("NOTION_API_KEY")
	}
	if c.Notion.DatabaseID == "" {
		c.Notion.DatabaseID = os.Getenv("NOTION_DATABASE_ID")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
}

func (c *Config) applyDefaults() {
	if c.YouTube.PageSize <= 0 {
		c.YouTube.PageSize = 10
	}
	if c.YouTube.OEmbedURL == "" {
		c.YouTube.OEmbedURL = "https://www.youtube.com/oembed"
	}
	if c.YouTube.WatchURL == "" {
		c.YouTube.WatchURL = "https://www.youtube.com"
	}

	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.Temperature == nil {
		temperature := float32(0.3)
		c.AI.Temperature = &temperature
	}
	if c.AI.MaxOutputTokens == 0 {
		c.AI.MaxOutputTokens = 2000
	}
	if c.AI.MaxTranscriptChars == 0 {
		c.AI.MaxTranscriptChars = 100000
	}

	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = "https://api.notion.com"
	}
	if c.Notion.Version == "" {
		c.Notion.Version = "2022-06-28"
	}
	if c.Notion.Timezone == "" {
		c.Notion.Timezone = "Asia/Seoul"
	}
	p := &c.Notion.Properties
	if p.Title == "" {
		p.Title = "Title"
	}
	if p.Channel == "" {
		p.Channel = "Channel"
	}
	if p.URL == "" {
		p.URL = "URL"
	}
	if p.AnalyzedAt == "" {
		p.AnalyzedAt = "Analyzed At"
	}
	if p.Insights == "" {
		p.Insights = "Key Insights"
	}

	if c.Transcript.PrimaryLanguage == "" {
		c.Transcript.PrimaryLanguage = "ko"
	}
	if c.Transcript.FallbackLanguage == "" {
		c.Transcript.FallbackLanguage = "en"
	}
	if c.Transcript.TimeoutSeconds <= 0 {
		c.Transcript.TimeoutSeconds = 10
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "subtitles"
	}
	if c.Output.DataDir == "" {
		c.Output.DataDir = "data"
	}

	if c.Watch.MaxResults <= 0 {
		c.Watch.MaxResults = 5
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.Watch.RetentionDays <= 0 {
		c.Watch.RetentionDays = 30
	}

	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.Notion.Timezone); err != nil {
		return fmt.Errorf("invalid notion timezone %q: %w", c.Notion.Timezone, err)
	}
	return nil
}

// TranscriptTimeout is the fixed timeout for caption listing requests
func (c *Config) TranscriptTimeout() time.Duration {
	return time.Duration(c.Transcript.TimeoutSeconds) * time.Second
}

func (c *Config) AnalysisEnabled() bool {
	return c.AI.GeminiAPIKey != ""
}

func (c *Config) NotionEnabled() bool {
	return c.Notion.APIKey != "" && c.Notion.DatabaseID != ""
}

func (c *Config) SearchEnabled() bool {
	return c.YouTube.APIKey != ""
}

func (c *Config) EmailEnabled() bool {
	return c.Email.SMTPServer != "" && c.Email.Username != "" && c.Email.Password != "" && c.Email.ToEmail != ""
}

// ValidateWatch checks the settings scheduled watch runs cannot do without
func (c *Config) ValidateWatch() error {
	if len(c.Watch.Queries) == 0 {
		return fmt.Errorf("at least one watch query is required (watch.queries)")
	}
	if !c.SearchEnabled() {
		return fmt.Errorf("YouTube API key is required for watch mode (set YOUTUBE_API_KEY or youtube.api_key)")
	}
	if !c.AnalysisEnabled() {
		return fmt.Errorf("Gemini API key is required for watch mode (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	return nil
}
