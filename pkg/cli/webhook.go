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

package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abcxyz/pkg/cli"
	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/pkg/renderer"
	"github.com/abcxyz/pkg/serving"

	"github.com/dragosrotaru/savant/pkg/completion"
	"github.com/dragosrotaru/savant/pkg/eligibility"
	"github.com/dragosrotaru/savant/pkg/events"
	"github.com/dragosrotaru/savant/pkg/githubclient"
	"github.com/dragosrotaru/savant/pkg/quickfix"
	"github.com/dragosrotaru/savant/pkg/review"
	"github.com/dragosrotaru/savant/pkg/testgen"
	"github.com/dragosrotaru/savant/pkg/version"
	"github.com/dragosrotaru/savant/pkg/webhook"
)

var _ cli.Command = (*WebhookServerCommand)(nil)

type WebhookServerCommand struct {
	cli.BaseCommand

	cfg *webhook.Config

	// testFlagSetOpts is only used for testing.
	testFlagSetOpts []cli.Option

	// testCompleter is only used for testing.
	testCompleter completion.Completer

	// testClientSource is only used for testing.
	testClientSource events.ClientSource

	// testRepositoryLister is only used for testing.
	testRepositoryLister webhook.RepositoryLister
}

func (c *WebhookServerCommand) Desc() string {
	return `Start the savant webhook server`
}

func (c *WebhookServerCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options]
  Start the webhook server that reacts to GitHub events.
`
}

func (c *WebhookServerCommand) Flags() *cli.FlagSet {
	c.cfg = &webhook.Config{}
	set := cli.NewFlagSet(c.testFlagSetOpts...)
	return c.cfg.ToFlags(set)
}

func (c *WebhookServerCommand) Run(ctx context.Context, args []string) error {
	server, mux, err := c.RunUnstarted(ctx, args)
	if err != nil {
		return err
	}

	return server.StartHTTPHandler(ctx, mux)
}

func (c *WebhookServerCommand) RunUnstarted(ctx context.Context, args []string) (*serving.Server, http.Handler, error) {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	args = f.Args()
	if len(args) > 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %q", args)
	}

	logger := logging.FromContext(ctx)
	logger.DebugContext(ctx, "server starting",
		"name", version.Name,
		"commit", version.Commit,
		"version", version.Version)

	h, err := renderer.New(ctx, nil,
		renderer.WithOnError(func(err error) {
			logger.ErrorContext(ctx, "failed to render", "error", err)
		}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if err := c.cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	clients := c.testClientSource
	lister := c.testRepositoryLister
	if clients == nil {
		appSource, err := githubclient.NewAppSource(c.cfg.GitHubAppID, c.cfg.GitHubPrivateKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create github app source: %w", err)
		}
		clients = appSource
		lister = appSource
	}

	completer := c.testCompleter
	if completer == nil {
		completionCfg, err := completion.NewConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid completion configuration: %w", err)
		}
		completer, err = completion.NewCompleter(completionCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create completer: %w", err)
		}
	}

	rules := &eligibility.Rules{
		BotLogin:      c.cfg.BotLogin,
		ExcludedRepos: c.cfg.ExcludedRepos,
	}

	router := events.NewRouter(clients)
	router.Register("push", quickfix.New(rules, completer))
	router.Register("pull_request.opened", testgen.New(rules, completer))
	router.Register("pull_request.opened", review.New(rules, completer))

	webhookServer, err := webhook.NewServer(ctx, h, c.cfg, router, lister)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create server: %w", err)
	}

	mux := webhookServer.Routes(ctx)

	server, err := serving.New(c.cfg.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create serving infrastructure: %w", err)
	}

	return server, mux, nil
}
