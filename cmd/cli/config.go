package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the engine configuration. Empty DatabaseURL or RedisURL
// selects the in-memory stand-ins, which is how tests and local development
// run.
type Config struct {
	HTTPAddress  string
	TickInterval time.Duration

	DatabaseURL string
	RedisURL    string

	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GroqAPIKey       string
	OpenRouterAPIKey string
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("HTTPAddress", ":8090")
	v.SetDefault("TickInterval", "60s")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":      "HTTP_ADDRESS",
		"TickInterval":     "TICK_INTERVAL",
		"DatabaseURL":      "DATABASE_URL",
		"RedisURL":         "REDIS_URL",
		"OpenAIAPIKey":     "OPENAI_API_KEY",
		"AnthropicAPIKey":  "ANTHROPIC_API_KEY",
		"GroqAPIKey":       "GROQ_API_KEY",
		"OpenRouterAPIKey": "OPENROUTER_API_KEY",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("tradeflow_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.tradeflow")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.TickInterval <= 0 {
		config.TickInterval = time.Minute
	}

	return &config, nil
}
