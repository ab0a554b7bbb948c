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

package eligibility

import (
	"testing"
)

func TestRules_IsSelf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		rules *Rules
		login string
		want  bool
	}{
		{
			name:  "matches_bot_login",
			rules: &Rules{BotLogin: "savant-dev-ai"},
			login: "savant-dev-ai",
			want:  true,
		},
		{
			name:  "other_login",
			rules: &Rules{BotLogin: "savant-dev-ai"},
			login: "octocat",
			want:  false,
		},
		{
			name:  "empty_login_never_self",
			rules: &Rules{BotLogin: ""},
			login: "",
			want:  false,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got, want := tc.rules.IsSelf(tc.login), tc.want; got != want {
				t.Errorf("IsSelf(%q) = %t, want %t", tc.login, got, want)
			}
		})
	}
}

func TestRules_IsExcludedRepo(t *testing.T) {
	t.Parallel()

	rules := &Rules{ExcludedRepos: []string{"octo-org/savant", "octo-org/infra"}}

	cases := []struct {
		name  string
		owner string
		repo  string
		want  bool
	}{
		{
			name:  "excluded",
			owner: "octo-org",
			repo:  "savant",
			want:  true,
		},
		{
			name:  "not_excluded",
			owner: "octo-org",
			repo:  "widgets",
			want:  false,
		},
		{
			name:  "same_name_different_owner",
			owner: "another-org",
			repo:  "savant",
			want:  false,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got, want := rules.IsExcludedRepo(tc.owner, tc.repo), tc.want; got != want {
				t.Errorf("IsExcludedRepo(%q, %q) = %t, want %t", tc.owner, tc.repo, got, want)
			}
		})
	}
}

func TestIsDefaultBranchPush(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		ref           string
		defaultBranch string
		want          bool
	}{
		{
			name:          "default_branch",
			ref:           "refs/heads/main",
			defaultBranch: "main",
			want:          true,
		},
		{
			name:          "feature_branch",
			ref:           "refs/heads/feature/retry",
			defaultBranch: "main",
			want:          false,
		},
		{
			name:          "tag_ref",
			ref:           "refs/tags/v1.0.0",
			defaultBranch: "main",
			want:          false,
		},
		{
			name:          "branch_prefix_of_default",
			ref:           "refs/heads/main-backup",
			defaultBranch: "main",
			want:          false,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got, want := IsDefaultBranchPush(tc.ref, tc.defaultBranch), tc.want; got != want {
				t.Errorf("IsDefaultBranchPush(%q, %q) = %t, want %t", tc.ref, tc.defaultBranch, got, want)
			}
		})
	}
}

func TestIsActionablePullRequest(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		locked bool
		draft  bool
		want   bool
	}{
		{name: "open", want: true},
		{name: "locked", locked: true, want: false},
		{name: "draft", draft: true, want: false},
		{name: "locked_draft", locked: true, draft: true, want: false},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got, want := IsActionablePullRequest(tc.locked, tc.draft), tc.want; got != want {
				t.Errorf("IsActionablePullRequest(%t, %t) = %t, want %t", tc.locked, tc.draft, got, want)
			}
		})
	}
}

func TestHasSupportedExtension(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		path string
		want bool
	}{
		{name: "ts", path: "src/parser.ts", want: true},
		{name: "tsx", path: "src/App.tsx", want: true},
		{name: "mts", path: "src/worker.mts", want: true},
		{name: "uppercase", path: "src/Parser.TS", want: true},
		{name: "js", path: "src/parser.js", want: false},
		{name: "dts_is_ts", path: "src/types.d.ts", want: true},
		{name: "ts_in_dir_name", path: "src.ts/parser.go", want: false},
		{name: "no_extension", path: "Makefile", want: false},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got, want := HasSupportedExtension(tc.path), tc.want; got != want {
				t.Errorf("HasSupportedExtension(%q) = %t, want %t", tc.path, got, want)
			}
		})
	}
}
