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

package githubclient

import (
	"context"
	"fmt"
)

// MockService is a configurable Service implementation for tests. Each
// operation delegates to the matching func field when set, and calls are
// recorded in order as "Method path" strings.
type MockService struct {
	GetFileFunc             func(ctx context.Context, owner, repo, path string) (*FileCandidate, error)
	CompareFunc             func(ctx context.Context, owner, repo, base, head string) ([]*ChangedFile, error)
	SearchByFilenameFunc    func(ctx context.Context, owner, repo string, names ...string) ([]string, error)
	CreateBranchFunc        func(ctx context.Context, owner, repo, branch, sha string) error
	WriteFileFunc           func(ctx context.Context, owner, repo, branch, path, message string, content []byte, sha string) error
	CreatePullFunc          func(ctx context.Context, owner, repo, title, head, base string) (*PullRequest, error)
	CreateReviewCommentFunc func(ctx context.Context, owner, repo string, number int, comment *ReviewComment) error

	Calls []string
}

func (m *MockService) record(format string, args ...any) {
	m.Calls = append(m.Calls, fmt.Sprintf(format, args...))
}

func (m *MockService) GetFile(ctx context.Context, owner, repo, path string) (*FileCandidate, error) {
	m.record("GetFile %s", path)
	if m.GetFileFunc != nil {
		return m.GetFileFunc(ctx, owner, repo, path)
	}
	return &FileCandidate{Path: path}, nil
}

func (m *MockService) Compare(ctx context.Context, owner, repo, base, head string) ([]*ChangedFile, error) {
	m.record("Compare %s...%s", base, head)
	if m.CompareFunc != nil {
		return m.CompareFunc(ctx, owner, repo, base, head)
	}
	return nil, nil
}

func (m *MockService) SearchByFilename(ctx context.Context, owner, repo string, names ...string) ([]string, error) {
	m.record("SearchByFilename %d", len(names))
	if m.SearchByFilenameFunc != nil {
		return m.SearchByFilenameFunc(ctx, owner, repo, names...)
	}
	return nil, nil
}

func (m *MockService) CreateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	m.record("CreateBranch %s@%s", branch, sha)
	if m.CreateBranchFunc != nil {
		return m.CreateBranchFunc(ctx, owner, repo, branch, sha)
	}
	return nil
}

func (m *MockService) WriteFile(ctx context.Context, owner, repo, branch, path, message string, content []byte, sha string) error {
	m.record("WriteFile %s@%s", path, sha)
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(ctx, owner, repo, branch, path, message, content, sha)
	}
	return nil
}

func (m *MockService) CreatePull(ctx context.Context, owner, repo, title, head, base string) (*PullRequest, error) {
	m.record("CreatePull %s->%s", head, base)
	if m.CreatePullFunc != nil {
		return m.CreatePullFunc(ctx, owner, repo, title, head, base)
	}
	return &PullRequest{Number: 1}, nil
}

func (m *MockService) CreateReviewComment(ctx context.Context, owner, repo string, number int, comment *ReviewComment) error {
	m.record("CreateReviewComment %s:%d", comment.Path, comment.Line)
	if m.CreateReviewCommentFunc != nil {
		return m.CreateReviewCommentFunc(ctx, owner, repo, number, comment)
	}
	return nil
}
