// Copyright 2024 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package completion

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds the model provider credentials. These are read from the
// environment once at process start; a missing key for the selected
// provider prevents the process from starting.
type Config struct {
	Provider        string `env:"MODEL_PROVIDER,default=openai"`
	Model           string `env:"MODEL_NAME"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
}

// NewConfig reads the completion config from the environment.
func NewConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process completion config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected provider has a key.
func (cfg *Config) Validate() error {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when MODEL_PROVIDER is %q", ProviderOpenAI)
		}
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when MODEL_PROVIDER is %q", ProviderAnthropic)
		}
	default:
		return fmt.Errorf("unknown MODEL_PROVIDER %q", cfg.Provider)
	}
	return nil
}

// NewCompleter creates the Completer selected by the config.
func NewCompleter(cfg *Config) (Completer, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.Model), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown MODEL_PROVIDER %q", cfg.Provider)
	}
}
