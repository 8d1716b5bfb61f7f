package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken string
	Gemini        GeminiConfig

	AnalysisTimeout time.Duration
	SessionIdleTTL  time.Duration
	MaxImageBytes   int64
	HealthcheckPort int

	LogLevel  log.Level
	LogFormat LogFormat
}

type GeminiConfig struct {
	APIKey     string
	SecretPath string
	Model      string
	BaseURL    string
}

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

const (
	// Telegram bot token, required by the bot command only
	EnvKeyTelegramToken = "TELEGRAM_TOKEN"

	// Gemini API key; takes precedence over the secrets path
	EnvKeyGeminiAPIKey = "GEMINI_API_KEY"
	// AWS Secrets Manager path where the Gemini API key can be found
	EnvKeyGeminiSecretPath = "GEMINI_SECRETS_PATH"
	// Gemini model name, e.g. "gemini-2.5-flash"
	EnvKeyGeminiModel = "GEMINI_MODEL"
	// Base URL of the Gemini API, without the version path
	EnvKeyGeminiAPIURL = "GEMINI_API_URL"

	// Upper bound for one analysis call, as a Go duration ("90s")
	EnvKeyAnalysisTimeout = "ANALYSIS_TIMEOUT"
	// How long a bot chat session may sit unused before it is dropped
	EnvKeySessionIdleTTL = "SESSION_IDLE_TTL"
	// Largest accepted photo in bytes
	EnvKeyMaxImageBytes = "MAX_IMAGE_BYTES"
	// Port of the healthcheck endpoint
	EnvKeyHealthcheckPort = "HEALTHCHECK_PORT"

	// Log level (e.g. "debug", "info", "warn", "error")
	EnvKeyLogLevel = "LOG_LEVEL"
	// Log output format ("text" or "json")
	EnvKeyLogFormat = "LOG_FORMAT"
)

const (
	DefaultAnalysisTimeout = 90 * time.Second
	DefaultSessionIdleTTL  = time.Hour
	DefaultMaxImageBytes   = 20 << 20
	DefaultHealthcheckPort = 8080
)

// GeminiSecretData is the JSON stored under GEMINI_SECRETS_PATH.
type GeminiSecretData struct {
	APIKey string `json:"apiKey"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// A missing .env file is fine, the environment may carry everything.
	_ = godotenv.Load()

	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(EnvKeyAnalysisTimeout, DefaultAnalysisTimeout.String())
	v.SetDefault(EnvKeySessionIdleTTL, DefaultSessionIdleTTL.String())
	v.SetDefault(EnvKeyMaxImageBytes, DefaultMaxImageBytes)
	v.SetDefault(EnvKeyHealthcheckPort, DefaultHealthcheckPort)
	v.SetDefault(EnvKeyLogLevel, "info")
	v.SetDefault(EnvKeyLogFormat, string(LogFormatText))
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	timeout, err := time.ParseDuration(v.GetString(EnvKeyAnalysisTimeout))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", EnvKeyAnalysisTimeout, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvKeyAnalysisTimeout)
	}

	idleTTL, err := time.ParseDuration(v.GetString(EnvKeySessionIdleTTL))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", EnvKeySessionIdleTTL, err)
	}
	// a session must outlive its longest analysis
	if idleTTL <= timeout {
		return nil, fmt.Errorf("%s must be longer than %s", EnvKeySessionIdleTTL, EnvKeyAnalysisTimeout)
	}

	maxImageBytes := v.GetInt64(EnvKeyMaxImageBytes)
	if maxImageBytes <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvKeyMaxImageBytes)
	}

	logLevel, err := log.ParseLevel(v.GetString(EnvKeyLogLevel))
	if err != nil {
		// Default to info level but log a warning
		log.Warnf("unable to parse log level: %v", err)
		logLevel = log.InfoLevel
	}

	logFormat, err := parseLogFormat(v.GetString(EnvKeyLogFormat))
	if err != nil {
		log.Warnf("unable to parse log format: %v", err)
		logFormat = LogFormatText
	}

	return &Config{
		TelegramToken: v.GetString(EnvKeyTelegramToken),
		Gemini: GeminiConfig{
			APIKey:     v.GetString(EnvKeyGeminiAPIKey),
			SecretPath: v.GetString(EnvKeyGeminiSecretPath),
			Model:      v.GetString(EnvKeyGeminiModel),
			BaseURL:    v.GetString(EnvKeyGeminiAPIURL),
		},
		AnalysisTimeout: timeout,
		SessionIdleTTL:  idleTTL,
		MaxImageBytes:   maxImageBytes,
		HealthcheckPort: v.GetInt(EnvKeyHealthcheckPort),
		LogLevel:        logLevel,
		LogFormat:       logFormat,
	}, nil
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch LogFormat(strings.ToLower(raw)) {
	case LogFormatJSON:
		return LogFormatJSON, nil
	case LogFormatText:
		return LogFormatText, nil
	default:
		return "", fmt.Errorf("unidentified log format: %s", raw)
	}
}

// SecretGetter is the part of the Secrets Manager client used here.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveGeminiAPIKey returns the configured key, falling back to AWS Secrets Manager.
func (c *Config) ResolveGeminiAPIKey(ctx context.Context) (string, error) {
	if c.Gemini.APIKey != "" {
		return c.Gemini.APIKey, nil
	}
	if c.Gemini.SecretPath == "" {
		return "", fmt.Errorf("%s or %s is required", EnvKeyGeminiAPIKey, EnvKeyGeminiSecretPath)
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load AWS config: %w", err)
	}
	return fetchGeminiAPIKey(ctx, secretsmanager.NewFromConfig(awsConfig), c.Gemini.SecretPath)
}

func fetchGeminiAPIKey(ctx context.Context, client SecretGetter, secretPath string) (string, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretPath),
	})
	if err != nil {
		return "", fmt.Errorf("get gemini secret: %w", err)
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("gemini secret %s has no string value", secretPath)
	}

	var secret GeminiSecretData
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		return "", fmt.Errorf("gemini secrets read error: %w", err)
	}
	if secret.APIKey == "" {
		return "", fmt.Errorf("gemini secret %s has no apiKey", secretPath)
	}
	return secret.APIKey, nil
}

// ConfigureLogging applies the level and format to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	log.SetLevel(c.LogLevel)
	switch c.LogFormat {
	case LogFormatJSON:
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{})
	}
}
