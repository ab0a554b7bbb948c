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

// Package events parses verified webhook payloads into typed events and
// dispatches them to registered handlers.
package events

import (
	"github.com/google/go-github/v61/github"

	"github.com/dragosrotaru/savant/pkg/githubclient"
)

// RepositoryRef identifies the repository all of an event's reads and
// mutations target.
type RepositoryRef struct {
	Owner         string
	Name          string
	DefaultBranch string
}

// Event is the envelope passed to handlers. It lives for one delivery; no
// field is shared across deliveries. GitHub is authenticated for the
// installation the event came from.
type Event struct {
	DeliveryID string
	Name       string
	Action     string

	Repo           RepositoryRef
	InstallationID int64

	// Exactly one of the payload fields is set, matching Name.
	Push        *github.PushEvent
	PullRequest *github.PullRequestEvent

	GitHub githubclient.Service
}
