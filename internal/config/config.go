package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/mikoto-studio/vstage/internal/model/profile"
)

// Config aggregates every configurable piece of the gateway.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Engine EngineConfig
	Relay  RelayConfig
	Stage  StageConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	eng, err := loadEngineConfig()
	if err != nil {
		return nil, err
	}

	relay := loadRelayConfig()
	stage := loadStageConfig()

	return &Config{Server: server, AI: ai, Engine: eng, Relay: relay, Stage: stage}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the conversation model.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("conversation model credentials missing: provide ARK_API_KEY + ARK_MODEL or AK/SK")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// EngineConfig describes the ASR/TTS sidecar engines and the artifact cache.
type EngineConfig struct {
	ASRBaseURL string
	TTSBaseURL string
	Timeout    int // seconds per engine call
	CacheDir   string
}

// ASREnabled reports whether an ASR engine is configured.
func (c EngineConfig) ASREnabled() bool { return c.ASRBaseURL != "" }

// TTSEnabled reports whether a TTS engine is configured.
func (c EngineConfig) TTSEnabled() bool { return c.TTSBaseURL != "" }

func loadEngineConfig() (EngineConfig, error) {
	timeout, err := parseOptionalIntEnv("ENGINE_TIMEOUT")
	if err != nil {
		return EngineConfig{}, err
	}
	timeoutSeconds := 30
	if timeout != nil {
		if *timeout <= 0 {
			return EngineConfig{}, fmt.Errorf("ENGINE_TIMEOUT must be positive, got %d", *timeout)
		}
		timeoutSeconds = *timeout
	}

	return EngineConfig{
		ASRBaseURL: strings.TrimSpace(os.Getenv("ASR_BASE_URL")),
		TTSBaseURL: strings.TrimSpace(os.Getenv("TTS_BASE_URL")),
		Timeout:    timeoutSeconds,
		CacheDir:   getEnvOrDefault("AUDIO_CACHE_DIR", "cache"),
	}, nil
}

// RelayConfig describes the upstream server the proxy endpoint forwards to.
type RelayConfig struct {
	UpstreamURL string
}

// Enabled reports whether the relay endpoint should be served.
func (c RelayConfig) Enabled() bool { return c.UpstreamURL != "" }

func loadRelayConfig() RelayConfig {
	return RelayConfig{UpstreamURL: strings.TrimSpace(os.Getenv("RELAY_UPSTREAM_URL"))}
}

// StageConfig seeds the initial runtime profile.
type StageConfig struct {
	Character string
	Avatar    string
	Provider  profile.Provider
	Voice     string
}

// InitialProfile converts the stage settings into the first profile snapshot.
func (c StageConfig) InitialProfile() profile.Profile {
	settings := profile.TTSSettings{Provider: c.Provider}
	if c.Voice != "" {
		settings = settings.WithVoice(c.Voice)
	}
	return profile.Profile{
		Character: c.Character,
		Avatar:    c.Avatar,
		TTS:       settings,
	}
}

func loadStageConfig() StageConfig {
	return StageConfig{
		Character: getEnvOrDefault("STAGE_CHARACTER", "aurora"),
		Avatar:    strings.TrimSpace(os.Getenv("STAGE_AVATAR")),
		Provider:  profile.Provider(getEnvOrDefault("TTS_PROVIDER", string(profile.ProviderEdge))),
		Voice:     strings.TrimSpace(os.Getenv("TTS_VOICE")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
