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

// Package publish turns a set of intended file mutations into GitHub
// artifacts: a branch at a known base sha, one commit per mutation, and a
// pull request. Branch names are keyed by the webhook delivery ID so a
// redelivered event resumes instead of duplicating branches.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abcxyz/pkg/logging"
	"github.com/sethvargo/go-retry"

	"github.com/dragosrotaru/savant/pkg/githubclient"
)

var (
	// can be overriden for testing
	retryMinWaitDuration        = 1 * time.Second
	retryMaxAttempts     uint64 = 4
)

// Mutation is one intended file change. An empty SHA creates a new file; a
// non-empty SHA updates the existing file at exactly that version.
type Mutation struct {
	Path    string
	Content []byte
	SHA     string
}

// Plan describes everything the Publisher needs to publish one event's
// results. A Plan is consumed exactly once.
type Plan struct {
	Owner   string
	Repo    string
	Branch  string
	BaseSHA string

	Mutations []Mutation

	CommitMessage string
	Title         string

	// Base is the target branch of the pull request.
	Base string
}

// BranchName builds the deterministic branch name for one delivery, e.g.
// "savant/quickfix/<delivery id>".
func BranchName(kind, deliveryID string) string {
	return "savant/" + kind + "/" + deliveryID
}

// Publisher writes plans to GitHub.
type Publisher struct {
	gh githubclient.Service
}

// NewPublisher creates a Publisher on top of the given GitHub service.
func NewPublisher(gh githubclient.Service) *Publisher {
	return &Publisher{gh: gh}
}

// Publish creates the plan's branch, writes each mutation in order and
// opens a pull request. A plan with no mutations publishes nothing and
// returns (nil, nil). A branch that already exists from an earlier
// delivery attempt is reused. A mid-sequence failure returns the error
// without rolling back already created artifacts; the deterministic branch
// name makes a redelivery resume from them.
func (p *Publisher) Publish(ctx context.Context, plan *Plan) (*githubclient.PullRequest, error) {
	logger := logging.FromContext(ctx)

	if len(plan.Mutations) == 0 {
		logger.InfoContext(ctx, "nothing to publish", "branch", plan.Branch)
		return nil, nil
	}

	if err := p.withRetry(ctx, func(ctx context.Context) error {
		return p.gh.CreateBranch(ctx, plan.Owner, plan.Repo, plan.Branch, plan.BaseSHA)
	}); err != nil {
		if !errors.Is(err, githubclient.ErrBranchExists) {
			return nil, fmt.Errorf("failed to create branch: %w", err)
		}
		logger.InfoContext(ctx, "branch already exists, resuming", "branch", plan.Branch)
	}

	for _, m := range plan.Mutations {
		m := m
		if err := p.withRetry(ctx, func(ctx context.Context) error {
			return p.gh.WriteFile(ctx, plan.Owner, plan.Repo, plan.Branch, m.Path, plan.CommitMessage, m.Content, m.SHA)
		}); err != nil {
			return nil, fmt.Errorf("failed to write %q: %w", m.Path, err)
		}
	}

	var pr *githubclient.PullRequest
	if err := p.withRetry(ctx, func(ctx context.Context) error {
		created, err := p.gh.CreatePull(ctx, plan.Owner, plan.Repo, plan.Title, plan.Branch, plan.Base)
		if err != nil {
			return err
		}
		pr = created
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	logger.InfoContext(ctx, "published pull request",
		"branch", plan.Branch,
		"number", pr.Number,
		"url", pr.URL)
	return pr, nil
}

// withRetry runs f with a Fibonacci backoff to ride out GitHub rate limits
// and transient API failures. ErrBranchExists is terminal.
func (p *Publisher) withRetry(ctx context.Context, f func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(retryMaxAttempts, retry.NewFibonacci(retryMinWaitDuration))
	return retry.Do(ctx, backoff, func(ctx context.Context) error { //nolint:wrapcheck // Want passthrough
		if err := f(ctx); err != nil {
			if errors.Is(err, githubclient.ErrBranchExists) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
}
