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

// Package completion wraps the code-completion model capability behind a
// single request/response interface. There is no retry and no streaming; a
// call suspends the handler until the response arrives or fails.
package completion

import (
	"context"
)

// Usage reports the token consumption of one completion request.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Result is the raw outcome of one completion request.
type Result struct {
	Text  string
	Usage Usage
}

// Completer submits a system instruction and a user prompt and returns the
// model's text response.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (*Result, error)
}
