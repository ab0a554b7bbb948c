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
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// FileContent is the content variant of a FileCandidate. SHA is the version
// token used for optimistic-concurrency file updates.
type FileContent struct {
	Content string
	SHA     string
}

// DirEntry is one entry of a directory listing.
type DirEntry struct {
	Name string
	Path string
	Type string
	SHA  string
}

// FileCandidate is the result of a content fetch. Exactly one of File and
// Directory is set; both nil means the path does not exist.
type FileCandidate struct {
	Path      string
	File      *FileContent
	Directory []*DirEntry
}

// IsFile reports whether the candidate is a regular file.
func (f *FileCandidate) IsFile() bool { return f.File != nil }

// IsDirectory reports whether the candidate is a directory listing.
func (f *FileCandidate) IsDirectory() bool { return f.Directory != nil }

// IsAbsent reports whether the path does not exist.
func (f *FileCandidate) IsAbsent() bool { return f.File == nil && f.Directory == nil }

// ClosestPathToRoot returns the path with the fewest "/"-separated
// segments. Ties go to the first such path in input order. Empty input
// returns "".
func ClosestPathToRoot(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	closest := paths[0]
	segments := strings.Count(paths[0], "/")
	for _, p := range paths[1:] {
		if n := strings.Count(p, "/"); n < segments {
			closest, segments = p, n
		}
	}
	return closest
}

// SiblingTest is an existing unit test file found next to a source file.
type SiblingTest struct {
	Path    string
	Content string
	SHA     string
}

// FindSiblingTest looks for an existing unit test next to filePath using
// the name.spec.ts / name.test.ts convention. It returns nil when no
// sibling test exists.
func FindSiblingTest(ctx context.Context, gh Service, owner, repo, filePath string) (*SiblingTest, error) {
	dir := path.Dir(filePath)
	if dir == "." {
		dir = ""
	}

	listing, err := gh.GetFile(ctx, owner, repo, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %q: %w", dir, err)
	}
	if !listing.IsDirectory() {
		return nil, nil
	}

	name, _, _ := strings.Cut(path.Base(filePath), ".")
	for _, want := range []string{name + ".spec.ts", name + ".test.ts"} {
		for _, entry := range listing.Directory {
			if entry.Path == filePath || entry.Name != want {
				continue
			}
			test, err := gh.GetFile(ctx, owner, repo, entry.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch test file %q: %w", entry.Path, err)
			}
			if !test.IsFile() {
				continue
			}
			return &SiblingTest{
				Path:    entry.Path,
				Content: test.File.Content,
				SHA:     test.File.SHA,
			}, nil
		}
	}
	return nil, nil
}

// jestConfigFilenames are the standalone config files recognized by Jest,
// searched when package.json has no "jest" field.
var jestConfigFilenames = []string{
	"jest.config.js",
	"jest.config.ts",
	"jest.config.mjs",
	"jest.config.cjs",
	"jest.config.json",
}

// JestConfig is the detected test-framework configuration of a repository.
type JestConfig struct {
	// Path is "package.json" for an embedded config, otherwise the path of
	// the standalone config file.
	Path string

	// Source is the raw configuration text.
	Source string
}

// FindJestConfig detects the repository's Jest configuration. A "jest"
// field in the root package.json takes precedence over a standalone config
// file found by repository-wide filename search, of which the shallowest
// match wins. It returns nil when the repository has no Jest configuration.
func FindJestConfig(ctx context.Context, gh Service, owner, repo string) (*JestConfig, error) {
	manifest, err := gh.GetFile(ctx, owner, repo, "package.json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package.json: %w", err)
	}
	if manifest.IsFile() {
		var fields map[string]json.RawMessage
		// An unparseable manifest is treated the same as one without a
		// jest field; the standalone config search still runs.
		if err := json.Unmarshal([]byte(manifest.File.Content), &fields); err == nil {
			if raw, ok := fields["jest"]; ok {
				return &JestConfig{Path: "package.json", Source: string(raw)}, nil
			}
		}
	}

	paths, err := gh.SearchByFilename(ctx, owner, repo, jestConfigFilenames...)
	if err != nil {
		return nil, fmt.Errorf("failed to search for jest config: %w", err)
	}
	configPath := ClosestPathToRoot(paths)
	if configPath == "" {
		return nil, nil
	}

	file, err := gh.GetFile(ctx, owner, repo, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jest config %q: %w", configPath, err)
	}
	if !file.IsFile() {
		return nil, nil
	}
	return &JestConfig{Path: configPath, Source: file.File.Content}, nil
}
