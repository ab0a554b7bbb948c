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
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/abcxyz/pkg/logging"
)

const (
	// SHA256SignatureHeader is the GitHub header key used to pass the HMAC-SHA256 hexdigest.
	SHA256SignatureHeader = "X-Hub-Signature-256"

	// EventTypeHeader is the GitHub header key used to pass the event type.
	EventTypeHeader = "X-Github-Event"

	// DeliveryIDHeader is the GitHub header key used to pass the unique ID for the webhook event.
	DeliveryIDHeader = "X-Github-Delivery"

	// mb is used for conversion to megabytes.
	mb = 1000000
)

var (
	statusOK = map[string]string{"status": "ok"}

	errReadingPayload        = fmt.Errorf("failed to read webhook payload")
	errNoPayload             = fmt.Errorf("no payload received")
	errMissingHeaders        = fmt.Errorf("missing webhook headers")
	errInvalidSignature      = fmt.Errorf("failed to validate webhook signature")
	errDispatchFailed        = fmt.Errorf("failed to dispatch event")
	errMissingInstallationID = fmt.Errorf("missing or invalid installation_id")
	errListingRepositories   = fmt.Errorf("failed to list repositories")
)

// handleWebhook handles the logic for receiving github webhooks and
// dispatching them to the event router. The signature is verified over the
// exact raw payload bytes before anything in the payload is trusted.
func (s *Server) handleWebhook() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		deliveryID := r.Header.Get(DeliveryIDHeader)
		eventType := r.Header.Get(EventTypeHeader)
		signature := r.Header.Get(SHA256SignatureHeader)

		if deliveryID == "" || eventType == "" || signature == "" {
			logger.ErrorContext(ctx, "missing webhook headers",
				"code", http.StatusBadRequest,
				"body", errMissingHeaders)
			s.h.RenderJSON(w, http.StatusBadRequest, errMissingHeaders)
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, 25*mb))
		if err != nil {
			logger.ErrorContext(ctx, "failed read webhook request body",
				"code", http.StatusInternalServerError,
				"body", errReadingPayload,
				"error", err)
			s.h.RenderJSON(w, http.StatusInternalServerError, errReadingPayload)
			return
		}

		if len(payload) == 0 {
			logger.ErrorContext(ctx, "no payload received",
				"code", http.StatusBadRequest,
				"body", errNoPayload)
			s.h.RenderJSON(w, http.StatusBadRequest, errNoPayload)
			return
		}

		if !s.isValidSignature(signature, payload) {
			logger.ErrorContext(ctx, "failed to validate webhook payload",
				"code", http.StatusUnauthorized,
				"body", errInvalidSignature)
			s.h.RenderJSON(w, http.StatusUnauthorized, errInvalidSignature)
			return
		}

		dispatchCtx, cancel := context.WithTimeout(ctx, s.cfg.HandlerTimeout)
		defer cancel()

		outcomes, err := s.router.Dispatch(dispatchCtx, deliveryID, eventType, payload)
		if err != nil {
			logger.ErrorContext(ctx, "failed to dispatch event",
				"code", http.StatusInternalServerError,
				"body", errDispatchFailed,
				"delivery_id", deliveryID,
				"event", eventType,
				"error", err)
			s.h.RenderJSON(w, http.StatusInternalServerError, errDispatchFailed)
			return
		}

		// Handler failures are deliberately not surfaced as an HTTP
		// error: GitHub would redeliver the event to every handler,
		// including the ones that succeeded.
		failed := 0
		for _, o := range outcomes {
			if o.Err != nil {
				failed++
			}
		}
		logger.InfoContext(ctx, "dispatched event",
			"delivery_id", deliveryID,
			"event", eventType,
			"handlers", len(outcomes),
			"failed", failed)

		s.h.RenderJSON(w, http.StatusCreated, statusOK)
	})
}

// isValidSignature validates the http request signature against the
// signature of the payload.
func (s *Server) isValidSignature(signature string, payload []byte) bool {
	mac := hmac.New(sha256.New, []byte(s.cfg.GitHubWebhookSecret))
	mac.Write(payload)
	got := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(signature), []byte(got)) == 1
}
