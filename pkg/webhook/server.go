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

// Package webhook is the HTTP entry point of savant: it verifies inbound
// GitHub webhook deliveries and hands them to the event router.
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/abcxyz/pkg/healthcheck"
	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/pkg/renderer"

	"github.com/dragosrotaru/savant/pkg/events"
	"github.com/dragosrotaru/savant/pkg/githubclient"
	"github.com/dragosrotaru/savant/pkg/version"
)

// RepositoryLister lists the repositories visible to an installation, for
// the setup passthrough endpoint.
type RepositoryLister interface {
	ListInstallationRepos(ctx context.Context, installationID int64) (*githubclient.InstallationRepos, error)
}

// Server provides the webhook server implementation.
type Server struct {
	h      *renderer.Renderer
	cfg    *Config
	router *events.Router
	repos  RepositoryLister
}

// NewServer creates a new HTTP server implementation that will handle
// receiving webhook payloads.
func NewServer(ctx context.Context, h *renderer.Renderer, cfg *Config, router *events.Router, repos RepositoryLister) (*Server, error) {
	if router == nil {
		return nil, fmt.Errorf("missing event router")
	}

	return &Server{
		h:      h,
		cfg:    cfg,
		router: router,
		repos:  repos,
	}, nil
}

// Routes creates a ServeMux of all of the routes that this Router
// supports.
func (s *Server) Routes(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx)
	mux := http.NewServeMux()
	mux.Handle("/healthz", healthcheck.HandleHTTPHealthCheck())
	mux.Handle("/webhook", s.handleWebhook())
	mux.Handle("/repositories", s.handleRepositories())
	mux.Handle("/version", s.handleVersion())

	// Middleware
	root := logging.HTTPInterceptor(logger, "")(mux)

	return root
}

// handleVersion is a simple http.HandlerFunc that responds with version
// information for the server.
func (s *Server) handleVersion() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"version":%q}`+"\n", version.HumanVersion)
	})
}

// handleRepositories is a passthrough listing of the repositories visible
// to an installation, used by the setup page.
func (s *Server) handleRepositories() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		installationID, err := strconv.ParseInt(r.URL.Query().Get("installation_id"), 10, 64)
		if err != nil {
			s.h.RenderJSON(w, http.StatusBadRequest, errMissingInstallationID)
			return
		}

		repos, err := s.repos.ListInstallationRepos(ctx, installationID)
		if err != nil {
			logger.ErrorContext(ctx, "failed to list installation repositories",
				"installation_id", installationID,
				"error", err)
			s.h.RenderJSON(w, http.StatusInternalServerError, errListingRepositories)
			return
		}

		s.h.RenderJSON(w, http.StatusOK, repos)
	})
}
