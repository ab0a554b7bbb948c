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

// Package quickfix handles push events to the default branch by asking the
// model for conservative fixes to each changed TypeScript file and
// publishing them as a branch and pull request.
package quickfix

import (
	"context"
	"fmt"
	"strings"

	"github.com/abcxyz/pkg/logging"

	"github.com/dragosrotaru/savant/pkg/completion"
	"github.com/dragosrotaru/savant/pkg/eligibility"
	"github.com/dragosrotaru/savant/pkg/events"
	"github.com/dragosrotaru/savant/pkg/publish"
)

const (
	// noFixesSentinel is the phrase the model is instructed to return when
	// a file needs no changes.
	noFixesSentinel = "No Fixes"

	systemPrompt = "return modern typescript code"

	commitMessage = "Savant Fixes"
	pullTitle     = "Savant Fixes"
)

var acceptedTags = []string{"typescript"}

// Handler is the push event quick-fix handler.
type Handler struct {
	rules     *eligibility.Rules
	completer completion.Completer
}

// New creates a quickfix Handler.
func New(rules *eligibility.Rules, completer completion.Completer) *Handler {
	return &Handler{rules: rules, completer: completer}
}

// Name implements events.Handler.
func (h *Handler) Name() string { return "quickfix" }

// Handle implements events.Handler. An ineligible push is a logged no-op.
func (h *Handler) Handle(ctx context.Context, evt *events.Event) error {
	logger := logging.FromContext(ctx)

	push := evt.Push
	if push == nil {
		return fmt.Errorf("quickfix: event %q is not a push", evt.Name)
	}

	if h.rules.IsSelf(push.GetSender().GetLogin()) {
		logger.InfoContext(ctx, "push from self, skipping")
		return nil
	}
	if h.rules.IsExcludedRepo(evt.Repo.Owner, evt.Repo.Name) {
		logger.InfoContext(ctx, "push on excluded repository, skipping",
			"owner", evt.Repo.Owner, "repo", evt.Repo.Name)
		return nil
	}
	if !eligibility.IsDefaultBranchPush(push.GetRef(), evt.Repo.DefaultBranch) {
		logger.InfoContext(ctx, "push not on default branch, skipping", "ref", push.GetRef())
		return nil
	}

	var mutations []publish.Mutation
	seen := map[string]struct{}{}
	for _, commit := range push.Commits {
		for _, path := range append(append([]string{}, commit.Modified...), commit.Added...) {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}

			if !eligibility.HasSupportedExtension(path) {
				continue
			}

			candidate, err := evt.GitHub.GetFile(ctx, evt.Repo.Owner, evt.Repo.Name, path)
			if err != nil {
				logger.WarnContext(ctx, "failed to fetch file, skipping", "path", path, "error", err)
				continue
			}
			if !candidate.IsFile() {
				continue
			}

			result, err := h.completer.Complete(ctx, systemPrompt, fixPrompt(candidate.File.Content))
			if err != nil {
				logger.WarnContext(ctx, "completion failed, skipping", "path", path, "error", err)
				continue
			}

			block, ok := completion.ExtractCode(result.Text, acceptedTags)
			if !ok || strings.TrimSpace(block.Code) == noFixesSentinel {
				logger.InfoContext(ctx, "no fixes for file", "path", path)
				continue
			}

			mutations = append(mutations, publish.Mutation{
				Path:    path,
				Content: []byte(block.Code),
				SHA:     candidate.File.SHA,
			})
		}
	}

	plan := &publish.Plan{
		Owner:         evt.Repo.Owner,
		Repo:          evt.Repo.Name,
		Branch:        publish.BranchName("quickfix", evt.DeliveryID),
		BaseSHA:       push.GetAfter(),
		Mutations:     mutations,
		CommitMessage: commitMessage,
		Title:         pullTitle,
		Base:          baseBranch(push.GetBaseRef(), evt.Repo.DefaultBranch),
	}

	pr, err := publish.NewPublisher(evt.GitHub).Publish(ctx, plan)
	if err != nil {
		return fmt.Errorf("quickfix: %w", err)
	}
	if pr != nil {
		logger.InfoContext(ctx, "opened quickfix pull request", "number", pr.Number, "url", pr.URL)
	}
	return nil
}

// baseBranch resolves the pull request target: the push's base ref when
// present, otherwise the repository default branch.
func baseBranch(baseRef, defaultBranch string) string {
	if baseRef == "" {
		return defaultBranch
	}
	return strings.TrimPrefix(baseRef, "refs/heads/")
}

func fixPrompt(content string) string {
	return fmt.Sprintf(`fix all code quality/readability issues, spelling errors, typos or bugs that exist in the code shown below. return only the code, inside of a typescript codeblock. Return absolutely no prose. if there are no fixes, return the phrase %q:

%s`, noFixesSentinel, content)
}
