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

package webhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/abcxyz/pkg/cli"
)

// Config defines the set of environment variables required for running
// the webhook server.
type Config struct {
	Port string

	GitHubAppID         string
	GitHubPrivateKey    string
	GitHubWebhookSecret string

	// BotLogin is the app's own user login, used to break self-trigger
	// loops.
	BotLogin string

	// ExcludedRepos lists "owner/name" repositories the bot must never
	// modify.
	ExcludedRepos []string

	// HandlerTimeout is the total wall-clock budget for dispatching one
	// delivery.
	HandlerTimeout time.Duration
}

// Validate validates the service config after load.
func (cfg *Config) Validate() error {
	var merr error

	if cfg.GitHubAppID == "" {
		merr = errors.Join(merr, fmt.Errorf("GITHUB_APP_ID is required"))
	}

	if cfg.GitHubPrivateKey == "" {
		merr = errors.Join(merr, fmt.Errorf("GITHUB_PRIVATE_KEY is required"))
	}

	if cfg.GitHubWebhookSecret == "" {
		merr = errors.Join(merr, fmt.Errorf("GITHUB_WEBHOOK_SECRET is required"))
	}

	if cfg.BotLogin == "" {
		merr = errors.Join(merr, fmt.Errorf("BOT_LOGIN is required"))
	}

	if cfg.HandlerTimeout <= 0 {
		merr = errors.Join(merr, fmt.Errorf("HANDLER_TIMEOUT must be positive"))
	}

	return merr
}

// ToFlags binds the config to the give [cli.FlagSet] and returns it.
func (cfg *Config) ToFlags(set *cli.FlagSet) *cli.FlagSet {
	f := set.NewSection("COMMON OPTIONS")

	f.StringVar(&cli.StringVar{
		Name:    "port",
		Target:  &cfg.Port,
		EnvVar:  "PORT",
		Default: "8080",
		Usage:   `The port the webhook server listens to.`,
	})

	f.StringVar(&cli.StringVar{
		Name:   "github-app-id",
		Target: &cfg.GitHubAppID,
		EnvVar: "GITHUB_APP_ID",
		Usage:  `The ID of the GitHub App.`,
	})

	f.StringVar(&cli.StringVar{
		Name:   "github-private-key",
		Target: &cfg.GitHubPrivateKey,
		EnvVar: "GITHUB_PRIVATE_KEY",
		Usage:  `The PEM encoded private key of the GitHub App.`,
	})

	f.StringVar(&cli.StringVar{
		Name:   "github-webhook-secret",
		Target: &cfg.GitHubWebhookSecret,
		EnvVar: "GITHUB_WEBHOOK_SECRET",
		Usage:  `GitHub webhook secret.`,
	})

	f.StringVar(&cli.StringVar{
		Name:   "bot-login",
		Target: &cfg.BotLogin,
		EnvVar: "BOT_LOGIN",
		Usage:  `The GitHub login of the app's own user identity.`,
	})

	f.StringSliceVar(&cli.StringSliceVar{
		Name:   "excluded-repos",
		Target: &cfg.ExcludedRepos,
		EnvVar: "EXCLUDED_REPOS",
		Usage:  `Repositories in owner/name form that must never be modified.`,
	})

	f.DurationVar(&cli.DurationVar{
		Name:    "handler-timeout",
		Target:  &cfg.HandlerTimeout,
		EnvVar:  "HANDLER_TIMEOUT",
		Default: 60 * time.Second,
		Usage:   `The total wall-clock budget for handling one delivery.`,
	})

	return set
}
