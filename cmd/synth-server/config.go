package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// configEnvReplacer maps nested keys to env var segments, so openai.apiKey
// becomes SYNTH_OPENAI_APIKEY.
var configEnvReplacer = strings.NewReplacer(".", "_")

// Config is read from config.yaml in the working directory and from
// SYNTH_-prefixed environment variables, e.g. SYNTH_OPENAI_APIKEY.
type Config struct {
	ListenAddr string `mapstructure:"listenAddr"`

	OpenAI struct {
		APIKey  string `mapstructure:"apiKey"`
		BaseURL string `mapstructure:"baseUrl"`
		Model   string `mapstructure:"model"`
	} `mapstructure:"openai"`

	Deepgram struct {
		APIKey string `mapstructure:"apiKey"`
		Voice  string `mapstructure:"voice"`
	} `mapstructure:"deepgram"`

	Search struct {
		APIKey   string `mapstructure:"apiKey"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"search"`

	Sandbox struct {
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"sandbox"`

	Storage struct {
		Dir     string `mapstructure:"dir"`
		BaseURL string `mapstructure:"baseUrl"`
	} `mapstructure:"storage"`
}

func loadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("listenAddr", ":3001")
	viper.SetDefault("openai.model", "gpt-3.5-turbo")
	viper.SetDefault("deepgram.voice", "aura-asteria-en")
	viper.SetDefault("storage.dir", "data/files")
	viper.SetDefault("storage.baseUrl", "http://localhost:3001/files")

	viper.SetEnvPrefix("synth")
	viper.SetEnvKeyReplacer(configEnvReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional; environment variables can carry
		// everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required (SYNTH_OPENAI_APIKEY)")
	}

	return &config, nil
}
