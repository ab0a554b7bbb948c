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

// Package eligibility contains the predicates that decide whether an event
// is worth acting on. Every predicate is a cheap, local check that runs
// before any GitHub or model call is made; a failed predicate means "skip",
// never an error.
package eligibility

import (
	"strings"
)

// supportedExtensions is the set of file extensions that handlers act on.
// Only the TypeScript family is supported.
var supportedExtensions = []string{".ts", ".tsx", ".mts"}

// Rules captures the per-deployment identity checks: which login belongs to
// the bot itself and which repositories must never be modified by the bot.
type Rules struct {
	// BotLogin is the login of the GitHub App's own user identity. Events
	// sent by this login are ignored to prevent self-triggering loops.
	BotLogin string

	// ExcludedRepos lists repositories in "owner/name" form that the bot
	// must never modify, such as the repository hosting the bot itself.
	ExcludedRepos []string
}

// IsSelf reports whether the sender login is the bot's own identity.
func (r *Rules) IsSelf(login string) bool {
	return login != "" && login == r.BotLogin
}

// IsExcludedRepo reports whether owner/name is in the exclusion list.
func (r *Rules) IsExcludedRepo(owner, name string) bool {
	full := owner + "/" + name
	for _, excluded := range r.ExcludedRepos {
		if full == excluded {
			return true
		}
	}
	return false
}

// IsDefaultBranchPush reports whether a push ref targets the repository's
// default branch.
func IsDefaultBranchPush(ref, defaultBranch string) bool {
	return ref == "refs/heads/"+defaultBranch
}

// IsActionablePullRequest reports whether a pull request may be acted on. A
// locked or draft pull request is skipped.
func IsActionablePullRequest(locked, draft bool) bool {
	return !locked && !draft
}

// HasSupportedExtension reports whether the path names a file in the
// supported extension set.
func HasSupportedExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
