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
	"strconv"

	"github.com/abcxyz/pkg/githubauth"
	"github.com/google/go-github/v61/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/dragosrotaru/savant/pkg/secrets"
)

// installationPermissions are the token permissions requested for event
// handling.
var installationPermissions = map[string]string{
	"contents":      "write",
	"pull_requests": "write",
}

// AppSource authenticates as a GitHub App and creates per-installation
// clients. It is built once at process start.
type AppSource struct {
	app *githubauth.App
}

// NewAppSource creates an AppSource from the app ID and the PEM encoded
// private key.
func NewAppSource(appID, privateKeyPEM string) (*AppSource, error) {
	privateKey, err := secrets.ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	app, err := githubauth.NewApp(appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create github app: %w", err)
	}
	return &AppSource{app: app}, nil
}

// Installation returns a Service authenticated for the given installation.
func (s *AppSource) Installation(ctx context.Context, installationID int64) (Service, error) {
	ts, err := s.tokenSource(ctx, installationID)
	if err != nil {
		return nil, err
	}
	return NewClient(github.NewClient(oauth2.NewClient(ctx, ts))), nil
}

// InstallationRepos is the repository listing for one installation.
type InstallationRepos struct {
	Login        string   `json:"login"`
	Repositories []string `json:"repositories"`
}

// ListInstallationRepos lists the repositories visible to an installation
// via the GraphQL API.
func (s *AppSource) ListInstallationRepos(ctx context.Context, installationID int64) (*InstallationRepos, error) {
	ts, err := s.tokenSource(ctx, installationID)
	if err != nil {
		return nil, err
	}
	client := githubv4.NewClient(oauth2.NewClient(ctx, ts))

	var query struct {
		Viewer struct {
			Login        githubv4.String
			Repositories struct {
				Nodes []struct {
					Name githubv4.String
				}
			} `graphql:"repositories(first: $first)"`
		}
	}
	if err := client.Query(ctx, &query, map[string]any{
		"first": githubv4.Int(100),
	}); err != nil {
		return nil, fmt.Errorf("failed to query installation repositories: %w", err)
	}

	repos := &InstallationRepos{
		Login:        string(query.Viewer.Login),
		Repositories: make([]string, 0, len(query.Viewer.Repositories.Nodes)),
	}
	for _, node := range query.Viewer.Repositories.Nodes {
		repos.Repositories = append(repos.Repositories, string(node.Name))
	}
	return repos, nil
}

func (s *AppSource) tokenSource(ctx context.Context, installationID int64) (oauth2.TokenSource, error) {
	installation, err := s.app.InstallationForID(ctx, strconv.FormatInt(installationID, 10))
	if err != nil {
		return nil, fmt.Errorf("failed to get github app installation: %w", err)
	}
	return installation.AllReposOAuth2TokenSource(ctx, installationPermissions), nil
}
