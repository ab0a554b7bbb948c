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
	"testing"
	"time"

	"github.com/abcxyz/pkg/testutil"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name: "valid",
			cfg: &Config{
				GitHubAppID:         "test-github-app-id",
				GitHubPrivateKey:    "test-github-private-key",
				GitHubWebhookSecret: "test-github-webhook-secret",
				BotLogin:            "savant-dev-ai",
				HandlerTimeout:      time.Minute,
			},
		},
		{
			name: "missing_github_app_id",
			cfg: &Config{
				GitHubPrivateKey:    "test-github-private-key",
				GitHubWebhookSecret: "test-github-webhook-secret",
				BotLogin:            "savant-dev-ai",
				HandlerTimeout:      time.Minute,
			},
			wantErr: "GITHUB_APP_ID is required",
		},
		{
			name: "missing_github_private_key",
			cfg: &Config{
				GitHubAppID:         "test-github-app-id",
				GitHubWebhookSecret: "test-github-webhook-secret",
				BotLogin:            "savant-dev-ai",
				HandlerTimeout:      time.Minute,
			},
			wantErr: "GITHUB_PRIVATE_KEY is required",
		},
		{
			name: "missing_github_webhook_secret",
			cfg: &Config{
				GitHubAppID:      "test-github-app-id",
				GitHubPrivateKey: "test-github-private-key",
				BotLogin:         "savant-dev-ai",
				HandlerTimeout:   time.Minute,
			},
			wantErr: "GITHUB_WEBHOOK_SECRET is required",
		},
		{
			name: "missing_bot_login",
			cfg: &Config{
				GitHubAppID:         "test-github-app-id",
				GitHubPrivateKey:    "test-github-private-key",
				GitHubWebhookSecret: "test-github-webhook-secret",
				HandlerTimeout:      time.Minute,
			},
			wantErr: "BOT_LOGIN is required",
		},
		{
			name: "zero_handler_timeout",
			cfg: &Config{
				GitHubAppID:         "test-github-app-id",
				GitHubPrivateKey:    "test-github-private-key",
				GitHubWebhookSecret: "test-github-webhook-secret",
				BotLogin:            "savant-dev-ai",
			},
			wantErr: "HANDLER_TIMEOUT must be positive",
		},
		{
			name:    "empty",
			cfg:     &Config{},
			wantErr: "GITHUB_APP_ID is required",
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.cfg.Validate()
			if diff := testutil.DiffErrString(err, tc.wantErr); diff != "" {
				t.Errorf("Validate(%+v) got unexpected err: %s", tc.name, diff)
			}
		})
	}
}
