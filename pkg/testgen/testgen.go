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

// Package testgen handles opened pull requests by asking the model to
// write Jest unit tests for each changed TypeScript file, or to extend the
// existing sibling test file, and publishing the results as a branch and
// pull request. The whole handler is a no-op when the repository has no
// Jest configuration.
package testgen

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/abcxyz/pkg/logging"

	"github.com/dragosrotaru/savant/pkg/completion"
	"github.com/dragosrotaru/savant/pkg/eligibility"
	"github.com/dragosrotaru/savant/pkg/events"
	"github.com/dragosrotaru/savant/pkg/githubclient"
	"github.com/dragosrotaru/savant/pkg/publish"
)

const (
	systemPrompt = "you are a senior software engineer who cares about code quality, reliability, security and performance. You are friendly and informative."

	commitMessage = "Savant Tests"
	pullTitle     = "Savant Tests"
)

var acceptedTags = []string{"typescript"}

// Handler is the pull request test-generation handler.
type Handler struct {
	rules     *eligibility.Rules
	completer completion.Completer
}

// New creates a testgen Handler.
func New(rules *eligibility.Rules, completer completion.Completer) *Handler {
	return &Handler{rules: rules, completer: completer}
}

// Name implements events.Handler.
func (h *Handler) Name() string { return "testgen" }

// Handle implements events.Handler.
func (h *Handler) Handle(ctx context.Context, evt *events.Event) error {
	logger := logging.FromContext(ctx)

	prEvent := evt.PullRequest
	if prEvent == nil {
		return fmt.Errorf("testgen: event %q is not a pull request", evt.Name)
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

	// Jest is a precondition for the whole handler, not a per-file check.
	jest, err := githubclient.FindJestConfig(ctx, evt.GitHub, evt.Repo.Owner, evt.Repo.Name)
	if err != nil {
		return fmt.Errorf("testgen: %w", err)
	}
	if jest == nil {
		logger.InfoContext(ctx, "jest not detected, skipping")
		return nil
	}

	files, err := evt.GitHub.Compare(ctx, evt.Repo.Owner, evt.Repo.Name,
		pr.GetBase().GetSHA(), pr.GetHead().GetSHA())
	if err != nil {
		return fmt.Errorf("testgen: %w", err)
	}
	if len(files) == 0 {
		logger.InfoContext(ctx, "no file changes, skipping")
		return nil
	}

	var mutations []publish.Mutation
	for _, f := range files {
		if !eligibility.HasSupportedExtension(f.Path) {
			continue
		}
		if f.Status != "modified" && f.Status != "added" {
			continue
		}

		candidate, err := evt.GitHub.GetFile(ctx, evt.Repo.Owner, evt.Repo.Name, f.Path)
		if err != nil {
			logger.WarnContext(ctx, "failed to fetch file, skipping", "path", f.Path, "error", err)
			continue
		}
		if !candidate.IsFile() {
			continue
		}

		sibling, err := githubclient.FindSiblingTest(ctx, evt.GitHub, evt.Repo.Owner, evt.Repo.Name, f.Path)
		if err != nil {
			logger.WarnContext(ctx, "failed to locate sibling test, skipping", "path", f.Path, "error", err)
			continue
		}

		prompt := newTestsPrompt(candidate.File.Content)
		if sibling != nil {
			prompt = extendTestsPrompt(candidate.File.Content, sibling.Content)
		}

		result, err := h.completer.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			logger.WarnContext(ctx, "completion failed, skipping", "path", f.Path, "error", err)
			continue
		}

		block, ok := completion.ExtractCode(result.Text, acceptedTags)
		if !ok {
			logger.InfoContext(ctx, "no test code returned, skipping", "path", f.Path)
			continue
		}

		mutation := publish.Mutation{
			Path:    specPath(f.Path),
			Content: []byte(block.Code),
		}
		if sibling != nil {
			mutation.Path = sibling.Path
			mutation.SHA = sibling.SHA
		}
		mutations = append(mutations, mutation)
	}

	plan := &publish.Plan{
		Owner:         evt.Repo.Owner,
		Repo:          evt.Repo.Name,
		Branch:        publish.BranchName("tests", evt.DeliveryID),
		BaseSHA:       pr.GetHead().GetSHA(),
		Mutations:     mutations,
		CommitMessage: commitMessage,
		Title:         pullTitle,
		Base:          baseBranch(pr.GetBase().GetRef(), evt.Repo.DefaultBranch),
	}

	created, err := publish.NewPublisher(evt.GitHub).Publish(ctx, plan)
	if err != nil {
		return fmt.Errorf("testgen: %w", err)
	}
	if created != nil {
		logger.InfoContext(ctx, "opened tests pull request", "number", created.Number, "url", created.URL)
	}
	return nil
}

// specPath converts dir/name.ext into the conventional new test file path
// dir/name.spec.ts.
func specPath(filePath string) string {
	dir := path.Dir(filePath)
	name, _, _ := strings.Cut(path.Base(filePath), ".")
	if dir == "." {
		return name + ".spec.ts"
	}
	return path.Join(dir, name+".spec.ts")
}

func baseBranch(baseRef, defaultBranch string) string {
	if baseRef == "" {
		return defaultBranch
	}
	return strings.TrimPrefix(baseRef, "refs/heads/")
}

func newTestsPrompt(code string) string {
	return fmt.Sprintf(`Write Jest unit tests for the code below. Return just a typescript code block with the Jest unit test file, assuming it is located next to the code in the directory. DO NOT INCLUDE PROSE:

Code File:

%s`, code)
}

func extendTestsPrompt(code, tests string) string {
	return fmt.Sprintf(`Modify the Jest unit tests below to increase coverage of the following code. Return just a typescript code block with the new Jest unit test file. DO NOT INCLUDE PROSE:

Code File:

%s

Unit Test File:

%s`, code, tests)
}
