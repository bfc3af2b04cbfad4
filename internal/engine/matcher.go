package engine

import (
	"strings"

	"github.com/raikhel/botflow/internal/flow"
)

// matchTrigger decides whether a trigger node fires for the inbound text
// and returns the capture groups it produced.
//
// Match strategies:
//   - exact:      text equals the configured literal, empty captures
//   - contains:   substring test
//   - startswith: prefix test
//   - regex:      cached compiled pattern; capture groups become captures
//   - any:        pipe-delimited keywords, substring test per keyword
//   - scheduled/timer: satisfied only by the scheduler's sentinel text
//
// An empty configured literal never matches (the sentinel case excepted),
// so a half-authored trigger is inert rather than a catch-all. An invalid
// regex is permanently non-matching; the cache remembers the verdict.
func (e *Engine) matchTrigger(n flow.Node, text string) ([]string, bool) {
	kind := n.Param("type")
	value := n.Param("value")

	if kind == "scheduled" || kind == "timer" {
		if text == flow.ScheduledText {
			return nil, true
		}
		return nil, false
	}

	// The sentinel is reserved for scheduled triggers.
	if text == flow.ScheduledText {
		return nil, false
	}
	if value == "" {
		return nil, false
	}

	switch kind {
	case "exact":
		return nil, text == value

	case "contains":
		return nil, strings.Contains(text, value)

	case "startswith":
		return nil, strings.HasPrefix(text, value)

	case "regex":
		re, ok := e.regexCache.Get(value)
		if !ok {
			return nil, false
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			return nil, false
		}
		return m[1:], true

	case "any":
		for _, keyword := range strings.Split(value, "|") {
			if keyword == "" {
				continue
			}
			if strings.Contains(text, keyword) {
				return nil, true
			}
		}
		return nil, false
	}

	return nil, false
}
