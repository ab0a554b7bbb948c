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

// Package githubclient provides the source-control capability used by the
// event handlers: content reads, diffs, code search, and the branch, file
// and pull request writes that publish results back to GitHub.
package githubclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v61/github"
)

// ErrBranchExists is returned by CreateBranch when the ref already exists.
// A redelivered event resumes on the existing branch instead of failing.
var ErrBranchExists = errors.New("branch already exists")

// ChangedFile is one entry of a commit comparison.
type ChangedFile struct {
	Path   string
	Status string
	Patch  string
}

// PullRequest identifies a pull request created by the bot.
type PullRequest struct {
	Number int
	URL    string
}

// ReviewComment is an inline pull request review comment anchored to a line
// of a file at a specific commit.
type ReviewComment struct {
	CommitID string
	Path     string
	Body     string
	Line     int
}

// Service is the set of GitHub operations the event handlers need. It is
// implemented by Client against the REST API and by MockService in tests.
type Service interface {
	// GetFile reads the content at path, disambiguating file, directory
	// and absent outcomes. See FileCandidate.
	GetFile(ctx context.Context, owner, repo, path string) (*FileCandidate, error)

	// Compare lists the files changed between two commits, with patches.
	Compare(ctx context.Context, owner, repo, base, head string) ([]*ChangedFile, error)

	// SearchByFilename searches the repository for files with any of the
	// given names and returns their paths.
	SearchByFilename(ctx context.Context, owner, repo string, names ...string) ([]string, error)

	// CreateBranch creates refs/heads/branch at the given commit sha.
	CreateBranch(ctx context.Context, owner, repo, branch, sha string) error

	// WriteFile creates or updates a file on a branch. A non-empty sha
	// updates the existing file at that version; an empty sha creates a
	// new file.
	WriteFile(ctx context.Context, owner, repo, branch, path, message string, content []byte, sha string) error

	// CreatePull opens a pull request from head to base.
	CreatePull(ctx context.Context, owner, repo, title, head, base string) (*PullRequest, error)

	// CreateReviewComment posts an inline review comment on a pull request.
	CreateReviewComment(ctx context.Context, owner, repo string, number int, comment *ReviewComment) error
}

// Client implements Service against the GitHub REST API for one
// installation.
type Client struct {
	gh *github.Client
}

// NewClient wraps an authenticated go-github client.
func NewClient(gh *github.Client) *Client {
	return &Client{gh: gh}
}

// GetFile implements Service. The three outcomes of a contents read are
// decided here, once; callers never re-inspect the raw API shape.
func (c *Client) GetFile(ctx context.Context, owner, repo, path string) (*FileCandidate, error) {
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return &FileCandidate{Path: path}, nil
		}
		return nil, fmt.Errorf("failed to get contents of %q: %w", path, err)
	}

	if dir != nil {
		entries := make([]*DirEntry, 0, len(dir))
		for _, e := range dir {
			entries = append(entries, &DirEntry{
				Name: e.GetName(),
				Path: e.GetPath(),
				Type: e.GetType(),
				SHA:  e.GetSHA(),
			})
		}
		return &FileCandidate{Path: path, Directory: entries}, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode contents of %q: %w", path, err)
	}
	return &FileCandidate{
		Path: path,
		File: &FileContent{Content: content, SHA: file.GetSHA()},
	}, nil
}

// Compare implements Service.
func (c *Client) Compare(ctx context.Context, owner, repo, base, head string) ([]*ChangedFile, error) {
	comparison, _, err := c.gh.Repositories.CompareCommits(ctx, owner, repo, base, head, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s...%s: %w", base, head, err)
	}

	files := make([]*ChangedFile, 0, len(comparison.Files))
	for _, f := range comparison.Files {
		files = append(files, &ChangedFile{
			Path:   f.GetFilename(),
			Status: f.GetStatus(),
			Patch:  f.GetPatch(),
		})
	}
	return files, nil
}

// SearchByFilename implements Service.
func (c *Client) SearchByFilename(ctx context.Context, owner, repo string, names ...string) ([]string, error) {
	terms := make([]string, 0, len(names))
	for _, name := range names {
		terms = append(terms, "filename:"+name)
	}
	query := fmt.Sprintf("repo:%s/%s (%s)", owner, repo, strings.Join(terms, " OR "))

	result, _, err := c.gh.Search.Code(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search code: %w", err)
	}

	paths := make([]string, 0, len(result.CodeResults))
	for _, item := range result.CodeResults {
		paths = append(paths, item.GetPath())
	}
	return paths, nil
}

// CreateBranch implements Service.
func (c *Client) CreateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	_, resp, err := c.gh.Git.CreateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(sha)},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return fmt.Errorf("%w: %s", ErrBranchExists, branch)
		}
		return fmt.Errorf("failed to create branch %q: %w", branch, err)
	}
	return nil
}

// WriteFile implements Service.
func (c *Client) WriteFile(ctx context.Context, owner, repo, branch, path, message string, content []byte, sha string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(branch),
	}

	if sha != "" {
		opts.SHA = github.String(sha)
		if _, _, err := c.gh.Repositories.UpdateFile(ctx, owner, repo, path, opts); err != nil {
			return fmt.Errorf("failed to update file %q: %w", path, err)
		}
		return nil
	}

	if _, _, err := c.gh.Repositories.CreateFile(ctx, owner, repo, path, opts); err != nil {
		return fmt.Errorf("failed to create file %q: %w", path, err)
	}
	return nil
}

// CreatePull implements Service.
func (c *Client) CreatePull(ctx context.Context, owner, repo, title, head, base string) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(head),
		Base:  github.String(base),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return &PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}

// CreateReviewComment implements Service.
func (c *Client) CreateReviewComment(ctx context.Context, owner, repo string, number int, comment *ReviewComment) error {
	_, _, err := c.gh.PullRequests.CreateComment(ctx, owner, repo, number, &github.PullRequestComment{
		Body:     github.String(comment.Body),
		CommitID: github.String(comment.CommitID),
		Path:     github.String(comment.Path),
		Line:     github.Int(comment.Line),
		Side:     github.String("RIGHT"),
	})
	if err != nil {
		return fmt.Errorf("failed to create review comment: %w", err)
	}
	return nil
}
