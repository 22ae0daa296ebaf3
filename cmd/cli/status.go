package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the resolved engine configuration",
		Long:  `Display the configuration the engine would start with, including which storage backends are selected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	config, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
		return err
	}

	fmt.Println("Tradeflow engine configuration")
	fmt.Printf("   HTTP address:  %s\n", config.HTTPAddress)
	fmt.Printf("   Tick interval: %s\n", config.TickInterval)

	if config.DatabaseURL != "" {
		fmt.Println("   Storage:       postgres")
	} else {
		fmt.Println("   Storage:       in-memory")
	}

	if config.RedisURL != "" {
		fmt.Println("   State store:   redis")
	} else if config.DatabaseURL != "" {
		fmt.Println("   State store:   postgres")
	} else {
		fmt.Println("   State store:   in-memory")
	}

	configured := func(key string) string {
		if key != "" {
			return "configured"
		}

		return "not configured"
	}

	fmt.Printf("   OpenAI:        %s\n", configured(config.OpenAIAPIKey))
	fmt.Printf("   Anthropic:     %s\n", configured(config.AnthropicAPIKey))
	fmt.Printf("   Groq:          %s\n", configured(config.GroqAPIKey))
	fmt.Printf("   OpenRouter:    %s\n", configured(config.OpenRouterAPIKey))

	return nil
}
