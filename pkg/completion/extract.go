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

package completion

import (
	"regexp"
	"strings"
)

// CodeBlock is the inner text of one fenced code block and the language tag
// it was matched under.
type CodeBlock struct {
	Code string
	Tag  string
}

// ExtractCode scans text for the first fenced code block whose language tag
// matches one of the accepted tags. Tags are checked in the caller-supplied
// priority order: the first tag that matches any block in the text wins,
// even if a block with a later tag appears earlier. The fence markers and
// the tag line are stripped; surrounding whitespace inside the block is
// preserved except for a single leading and trailing newline.
//
// The second return value is false when no block matches. That is not an
// error; it signals that the response contained no actionable code.
func ExtractCode(text string, tags []string) (*CodeBlock, bool) {
	for _, tag := range tags {
		re := regexp.MustCompile("(?s)```" + regexp.QuoteMeta(tag) + "\n(.+?)```")
		m := re.FindStringSubmatch(text)
		if len(m) > 1 {
			return &CodeBlock{
				Code: strings.TrimSuffix(m[1], "\n"),
				Tag:  tag,
			}, true
		}
	}
	return nil, false
}
