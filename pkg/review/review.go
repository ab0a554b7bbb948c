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

// Package review handles opened pull requests by asking the model for a
// free-text review of each changed file's patch and posting it as an
// inline comment anchored to the last line of the patch at the pull
// request's head commit.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/abcxyz/pkg/logging"

	"github.com/dragosrotaru/savant/pkg/completion"
	"github.com/dragosrotaru/savant/pkg/eligibility"
	"github.com/dragosrotaru/savant/pkg/events"
	"github.com/dragosrotaru/savant/pkg/githubclient"
)

const systemPrompt = "you are a senior software engineer who cares about code quality, reliability, security and performance. You are friendly and informative."

// Handler is the pull request review-comment handler.
type Handler struct {
	rules     *eligibility.Rules
	completer completion.Completer
}

// New creates a review Handler.
func New(rules *eligibility.Rules, completer completion.Completer) *Handler {
	return &Handler{rules: rules, completer: completer}
}

// Name implements events.Handler.
func (h *Handler) Name() string { return "review" }

// Handle implements events.Handler. Unlike the publishing handlers, review
// produces no branch or pull request; its only side effect is inline
// comments.
func (h *Handler) Handle(ctx context.Context, evt *events.Event) error {
	logger := logging.FromContext(ctx)

	prEvent := evt.PullRequest
	if prEvent == nil {
		return fmt.Errorf("review: event %q is not a pull request", evt.Name)
	}
	pr := prEvent.GetPullRequest()

	if h.rules.IsSelf(prEvent.GetSender().GetLogin()) {
		logger.InfoContext(ctx, "pull request from self, skipping")
		return nil
	}
	if h.rules.IsExcludedRepo(evt.Repo.Owner, evt.Repo.Name) {
		logger.InfoContext(ctx, "pull request on excluded repository, skipping",
			"owner", evt.Repo.Owner, "repo", evt.Repo.Name)
		return nil
	}
	if !eligibility.IsActionablePullRequest(pr.GetLocked(), pr.GetDraft()) {
		logger.InfoContext(ctx, "pull request locked or draft, skipping", "number", pr.GetNumber())
		return nil
	}

	files, err := evt.GitHub.Compare(ctx, evt.Repo.Owner, evt.Repo.Name,
		pr.GetBase().GetSHA(), pr.GetHead().GetSHA())
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	if len(files) == 0 {
		logger.InfoContext(ctx, "no file changes, skipping")
		return nil
	}

	for _, f := range files {
		if !eligibility.HasSupportedExtension(f.Path) {
			continue
		}
		if f.Status != "modified" && f.Status != "added" {
			continue
		}
		if f.Patch == "" {
			continue
		}

		result, err := h.completer.Complete(ctx, systemPrompt,
			reviewPrompt(pr.GetTitle(), pr.GetBody(), f.Patch))
		if err != nil {
			logger.WarnContext(ctx, "completion failed, skipping", "path", f.Path, "error", err)
			continue
		}
		if result.Text == "" {
			continue
		}

		comment := &githubclient.ReviewComment{
			CommitID: pr.GetHead().GetSHA(),
			Path:     f.Path,
			Body:     result.Text,
			Line:     lastPatchLine(f.Patch),
		}
		if err := evt.GitHub.CreateReviewComment(ctx, evt.Repo.Owner, evt.Repo.Name,
			pr.GetNumber(), comment); err != nil {
			logger.WarnContext(ctx, "failed to post review comment, skipping",
				"path", f.Path, "error", err)
			continue
		}
		logger.InfoContext(ctx, "posted review comment", "path", f.Path)
	}
	return nil
}

// lastPatchLine returns the line offset of the final line of a patch.
func lastPatchLine(patch string) int {
	return len(strings.Split(patch, "\n")) - 1
}

func reviewPrompt(title, body, patch string) string {
	return fmt.Sprintf(`write a code review for the following patch of a Pull Request:

title: %s

body: %s

code patch:

%s`, title, body, patch)
}
