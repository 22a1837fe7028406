package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Speech    SpeechConfig    `yaml:"speech"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	Assistant AssistantConfig `yaml:"assistant"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Log       LogConfig       `yaml:"log"`
	Trace     TraceConfig     `yaml:"trace"`
	Debug     DebugConfig     `yaml:"debug"`
}

type AudioConfig struct {
	Source          string `yaml:"source"`
	HTTPAddr        string `yaml:"http_addr"`
	FileDir         string `yaml:"file_dir"`
	SampleRate      int    `yaml:"sample_rate"`
	AuthToken       string `yaml:"auth_token"`
	SpeechThreshold int    `yaml:"speech_threshold"`
	MinSilenceMS    int    `yaml:"min_silence_ms"`
	SaveDir         string `yaml:"save_dir"`
	// Sink is where synthesized replies go: none, file or speaker.
	Sink    string `yaml:"sink"`
	SinkDir string `yaml:"sink_dir"`
}

func (a AudioConfig) MinSilence() time.Duration {
	return time.Duration(a.MinSilenceMS) * time.Millisecond
}

type SpeechConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	STTModel   string `yaml:"stt_model"`
	Language   string `yaml:"language"`
	TTSModel   string `yaml:"tts_model"`
	Voice      string `yaml:"voice"`
	TTSEnabled bool   `yaml:"tts_enabled"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

type StoreConfig struct {
	Variant string `yaml:"variant"`
	// Backend is sqlite (Path), postgres (DSN) or http (BaseURL, marketplace only).
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`
	BaseURL string `yaml:"base_url"`
}

type AssistantConfig struct {
	FallbackReply string `yaml:"fallback_reply"`
	TurnTimeout   string `yaml:"turn_timeout"`
}

func (a AssistantConfig) TurnTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.TurnTimeout)
	if err != nil {
		return 0
	}
	return d
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
	Title   string `yaml:"title"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TraceConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// DebugConfig exposes the gops agent for inspecting a running assistant.
type DebugConfig struct {
	Gops     bool   `yaml:"gops"`
	GopsAddr string `yaml:"gops_addr"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "http"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.SpeechThreshold == 0 {
		c.Audio.SpeechThreshold = 500
	}
	if c.Audio.MinSilenceMS == 0 {
		c.Audio.MinSilenceMS = 1000
	}
	if c.Audio.Sink == "" {
		c.Audio.Sink = "none"
	}
	if c.Audio.SinkDir == "" {
		c.Audio.SinkDir = "./replies"
	}
	// Whisper and TTS live on the same OpenAI account as the chat model.
	if c.Speech.APIKey == "" && c.LLM.Provider == "openai" && c.LLM.BaseURL == "" {
		c.Speech.APIKey = c.LLM.APIKey
	}
	if c.Speech.STTModel == "" {
		c.Speech.STTModel = "whisper-1"
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en"
	}
	if c.Speech.TTSModel == "" {
		c.Speech.TTSModel = "tts-1"
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "alloy"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "anthropic":
			c.LLM.Model = "claude-sonnet-4-20250514"
		case "gemini":
			c.LLM.Model = "gemini-2.0-flash"
		default:
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.Store.Variant == "" {
		c.Store.Variant = "tickets"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./assistant.db"
	}
	if c.Assistant.TurnTimeout == "" {
		c.Assistant.TurnTimeout = "60s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Trace.ServiceName == "" {
		c.Trace.ServiceName = "voice-assistant"
	}
}

func (c *Config) Validate() error {
	var errs []error

	check := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s: unknown value %q (want one of %v)", field, value, allowed))
	}

	check("audio.source", c.Audio.Source, "http", "file", "microphone")
	check("audio.sink", c.Audio.Sink, "none", "file", "speaker")
	check("llm.provider", c.LLM.Provider, "openai", "gemini", "anthropic")
	check("store.variant", c.Store.Variant, "tickets", "marketplace")
	check("store.backend", c.Store.Backend, "sqlite", "postgres", "http")
	check("log.level", c.Log.Level, "debug", "info", "warn", "error")
	check("log.format", c.Log.Format, "text", "json")

	if c.Store.Backend == "http" {
		if c.Store.Variant != "marketplace" {
			errs = append(errs, errors.New("store.backend http is only available for the marketplace variant"))
		}
		if c.Store.BaseURL == "" {
			errs = append(errs, errors.New("store.base_url is required for the http backend"))
		}
	}

	if c.Store.Backend == "postgres" && c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is required for the postgres backend"))
	}

	if _, err := time.ParseDuration(c.Assistant.TurnTimeout); err != nil {
		errs = append(errs, fmt.Errorf("assistant.turn_timeout: %w", err))
	}

	return errors.Join(errs...)
}
