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

package events

import (
	"context"
	"fmt"

	"github.com/abcxyz/pkg/logging"
	"github.com/google/go-github/v61/github"

	"github.com/dragosrotaru/savant/pkg/githubclient"
)

// Handler processes one event. Handlers must treat ineligible events as a
// no-op, not an error.
type Handler interface {
	Name() string
	Handle(ctx context.Context, evt *Event) error
}

// ClientSource creates a GitHub service for an installation.
type ClientSource interface {
	Installation(ctx context.Context, installationID int64) (githubclient.Service, error)
}

// Outcome is the result of one handler run.
type Outcome struct {
	Handler string
	Err     error
}

// Router dispatches verified webhook payloads to handlers. It is built
// once at process start; handlers are plain values, there is no global
// registration.
type Router struct {
	clients  ClientSource
	handlers map[string][]Handler
}

// NewRouter creates a Router that resolves installation clients from the
// given source.
func NewRouter(clients ClientSource) *Router {
	return &Router{
		clients:  clients,
		handlers: map[string][]Handler{},
	}
}

// Register binds a handler to a routing key. The key is the event name,
// plus ".{action}" for events with an action field, e.g. "push" or
// "pull_request.opened". Multiple handlers may share a key.
func (r *Router) Register(key string, h Handler) {
	r.handlers[key] = append(r.handlers[key], h)
}

// Dispatch parses the payload and runs every handler registered for the
// event's routing key. Handlers run independently: a failure or panic in
// one is captured in its Outcome and does not prevent the others from
// running. Unrecognized event names and actions are ignored without error.
// The returned error covers only pre-handler failures (malformed payload,
// installation client resolution).
func (r *Router) Dispatch(ctx context.Context, deliveryID, eventName string, payload []byte) ([]Outcome, error) {
	logger := logging.FromContext(ctx)

	// Forward compatibility: provider-added event types are accepted and
	// ignored, never an error.
	switch eventName {
	case "push", "pull_request":
	default:
		logger.DebugContext(ctx, "ignoring unsupported event", "event", eventName)
		return nil, nil
	}

	parsed, err := github.ParseWebHook(eventName, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q payload: %w", eventName, err)
	}

	evt := &Event{
		DeliveryID: deliveryID,
		Name:       eventName,
	}

	var key string
	switch payload := parsed.(type) {
	case *github.PushEvent:
		key = "push"
		evt.Push = payload
		evt.InstallationID = payload.GetInstallation().GetID()
		evt.Repo = RepositoryRef{
			Owner:         payload.GetRepo().GetOwner().GetLogin(),
			Name:          payload.GetRepo().GetName(),
			DefaultBranch: payload.GetRepo().GetDefaultBranch(),
		}
	case *github.PullRequestEvent:
		evt.Action = payload.GetAction()
		key = "pull_request." + evt.Action
		evt.PullRequest = payload
		evt.InstallationID = payload.GetInstallation().GetID()
		evt.Repo = RepositoryRef{
			Owner:         payload.GetRepo().GetOwner().GetLogin(),
			Name:          payload.GetRepo().GetName(),
			DefaultBranch: payload.GetRepo().GetDefaultBranch(),
		}
	default:
		logger.DebugContext(ctx, "ignoring unsupported event", "event", eventName)
		return nil, nil
	}

	handlers := r.handlers[key]
	if len(handlers) == 0 {
		logger.DebugContext(ctx, "no handlers registered", "key", key)
		return nil, nil
	}

	gh, err := r.clients.Installation(ctx, evt.InstallationID)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation client: %w", err)
	}
	evt.GitHub = gh

	outcomes := make([]Outcome, 0, len(handlers))
	for _, h := range handlers {
		err := r.run(ctx, h, evt)
		if err != nil {
			logger.ErrorContext(ctx, "handler failed",
				"handler", h.Name(),
				"key", key,
				"delivery_id", deliveryID,
				"error", err)
		}
		outcomes = append(outcomes, Outcome{Handler: h.Name(), Err: err})
	}
	return outcomes, nil
}

// run isolates one handler execution, converting panics to errors so a
// faulty handler cannot take down the delivery.
func (r *Router) run(ctx context.Context, h Handler, evt *Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler %q panicked: %v", h.Name(), p)
		}
	}()
	return h.Handle(ctx, evt)
}
