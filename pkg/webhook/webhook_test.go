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

package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/abcxyz/pkg/renderer"
	"github.com/google/uuid"

	"github.com/dragosrotaru/savant/pkg/events"
	"github.com/dragosrotaru/savant/pkg/githubclient"
)

//nolint:gosec // This is a false positive for a variable name.
const serverGitHubWebhookSecret = "test-github-webhook-secret"

// staticClientSource hands every installation the same service.
type staticClientSource struct {
	svc githubclient.Service
	err error
}

func (s *staticClientSource) Installation(ctx context.Context, installationID int64) (githubclient.Service, error) {
	return s.svc, s.err
}

// recordingHandler counts invocations and returns a fixed error.
type recordingHandler struct {
	name  string
	err   error
	calls int
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Handle(ctx context.Context, evt *events.Event) error {
	h.calls++
	return h.err
}

func TestHandleWebhook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	testDataBasePath := path.Join("..", "..", "testdata")

	cases := []struct {
		name                 string
		payloadFile          string
		payloadType          string
		payloadWebhookSecret string
		omitHeaders          bool
		tamperPayload        bool
		handlerErr           error
		clientSourceErr      error
		expStatusCode        int
		expRespBody          string
		expHandlerCalls      int
	}{
		{
			name:                 "success_push",
			payloadFile:          path.Join(testDataBasePath, "push.json"),
			payloadType:          "push",
			payloadWebhookSecret: serverGitHubWebhookSecret,
			expStatusCode:        http.StatusCreated,
			expRespBody:          `{"status":"ok"}`,
			expHandlerCalls:      1,
		},
		{
			name:                 "success_pull_request",
			payloadFile:          path.Join(testDataBasePath, "pull_request.json"),
			payloadType:          "pull_request",
			payloadWebhookSecret: serverGitHubWebhookSecret,
			expStatusCode:        http.StatusCreated,
			expRespBody:          `{"status":"ok"}`,
		},
		{
			name:                 "success_unsupported_event_ignored",
			payloadFile:          path.Join(testDataBasePath, "push.json"),
			payloadType:          "deployment_status",
			payloadWebhookSecret: serverGitHubWebhookSecret,
			expStatusCode:        http.StatusCreated,
			expRespBody:          `{"status":"ok"}`,
		},
		{
			name:                 "success_handler_failure_not_surfaced",
			payloadFile:          path.Join(testDataBasePath, "push.json"),
			payloadType:          "push",
			payloadWebhookSecret: serverGitHubWebhookSecret,
			handlerErr:           errors.New("model unavailable"),
			expStatusCode:        http.StatusCreated,
			expRespBody:          `{"status":"ok"}`,
			expHandlerCalls:      1,
		},
		{
			name:                 "missing_headers",
			payloadFile:          path.Join(testDataBasePath, "push.json"),
			payloadType:          "push",
			payloadWebhookSecret: serverGitHubWebhookSecret,
			omitHeaders:          true,
			expStatusCode:        http.StatusBadRequest,
			expRespBody:          `{"errors":["missing webhook headers"]}`,
		},
		{
			name:                 "empty_payload",
			payloadType:          "push",
			payloadWebhookSecret: serverGitHubWebhookSecret,
			expStatusCode:        http.StatusBadRequest,
			expRespBody:          `{"errors":["no payload received"]}`,
		},
		{
			name:                 "invalid_signature",
			payloadFile:          path.Join(testDataBasePath, "push.json"),
			payloadType:          "push",
			payloadWebhookSecret: "not-valid",
			expStatusCode:        http.StatusUnauthorized,
			expRespBody:          `{"errors":["failed to validate webhook signature"]}`,
		},
		{
			name:                 "tampered_payload",
			payloadFile:          path.Join(testDataBasePath, "push.json"),
			payloadType:          "push",
			payloadWebhookSecret: serverGitHubWebhookSecret,
			tamperPayload:        true,
			expStatusCode:        http.StatusUnauthorized,
			expRespBody:          `{"errors":["failed to validate webhook signature"]}`,
		},
		{
			name:                 "error_client_resolution_failed",
			payloadFile:          path.Join(testDataBasePath, "push.json"),
			payloadType:          "push",
			payloadWebhookSecret: serverGitHubWebhookSecret,
			clientSourceErr:      errors.New("installation not found"),
			expStatusCode:        http.StatusInternalServerError,
			expRespBody:          `{"errors":["failed to dispatch event"]}`,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var payload []byte
			var err error
			if len(tc.payloadFile) > 0 {
				payload, err = os.ReadFile(tc.payloadFile)
				if err != nil {
					t.Fatalf("failed to create payload from file: %v", err)
				}
			}

			// The signature is computed over the untampered payload so a
			// post-signing bit flip must be rejected.
			signature := createSignature([]byte(tc.payloadWebhookSecret), payload)
			if tc.tamperPayload {
				payload = bytes.Replace(payload, []byte("octocat"), []byte("octodog"), 1)
			}

			req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
			if !tc.omitHeaders {
				req.Header.Add(DeliveryIDHeader, uuid.New().String())
				req.Header.Add(EventTypeHeader, tc.payloadType)
				req.Header.Add(SHA256SignatureHeader, fmt.Sprintf("sha256=%s", signature))
			}

			resp := httptest.NewRecorder()

			cfg := &Config{
				GitHubWebhookSecret: serverGitHubWebhookSecret,
				HandlerTimeout:      5 * time.Second,
			}

			handler := &recordingHandler{name: "recorder", err: tc.handlerErr}
			router := events.NewRouter(&staticClientSource{
				svc: &githubclient.MockService{},
				err: tc.clientSourceErr,
			})
			router.Register("push", handler)

			h, err := renderer.New(ctx, nil,
				renderer.WithDebug(true),
				renderer.WithOnError(func(err error) {
					t.Error(err)
				}))
			if err != nil {
				t.Fatal(err)
			}

			srv, err := NewServer(ctx, h, cfg, router, nil)
			if err != nil {
				t.Fatalf("failed to create new server: %v", err)
			}

			srv.handleWebhook().ServeHTTP(resp, req)

			if got, want := resp.Code, tc.expStatusCode; got != want {
				t.Errorf("expected %d to be %d", got, want)
			}

			if got, want := strings.TrimSpace(resp.Body.String()), tc.expRespBody; got != want {
				t.Errorf("expected %q to be %q", got, want)
			}

			if got, want := handler.calls, tc.expHandlerCalls; got != want {
				t.Errorf("expected %d handler calls, got %d", want, got)
			}
		})
	}
}

// createSignature creates a HMAC 256 signature for the test request payload.
func createSignature(key, payload []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
