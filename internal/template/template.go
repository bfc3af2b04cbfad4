// Package template implements `{name}` placeholder substitution for node
// parameters: message texts, condition operands, and computed values.
//
// Resolution order: built-in placeholders (event fields, wall clock,
// bounded random integers, the at-mention snippet), numbered regex
// captures ({$1}, {$2}, ...), caller-supplied context keys, and finally
// the {storage.<key>} namespace backed by a per-user read. Placeholders
// that resolve to nothing pass through unchanged, so a malformed template
// degrades to its own literal text.
package template

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/raikhel/botflow/internal/flow"
)

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// Options supplies the resolution sources for one Render call. All fields
// are optional; a zero Options resolves only event built-ins.
type Options struct {
	// Captures are the regex trigger's capture groups, addressed as
	// {$1}..{$N}.
	Captures []string

	// Lookup resolves execution-context variables by name.
	Lookup func(name string) (string, bool)

	// StorageGet performs the synchronous per-user read behind the
	// {storage.<key>} namespace.
	StorageGet func(key string) (string, bool)

	// Now supplies the wall clock for date/time placeholders. Zero means
	// time.Now().
	Now time.Time

	// RandInt returns a random integer in [lo, hi] for {random:lo-hi}.
	// Nil uses math/rand.
	RandInt func(lo, hi int) int
}

// Render substitutes every {name} placeholder in tmpl. The function is
// pure apart from the injected clock, RNG, and storage read; a template
// with no '{' comes back unchanged.
func Render(tmpl string, ev flow.Event, text string, opts Options) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]

		if v, ok := builtin(name, ev, text, now, opts.RandInt); ok {
			return v
		}
		if v, ok := capture(name, opts.Captures); ok {
			return v
		}
		if opts.Lookup != nil {
			if v, ok := opts.Lookup(name); ok {
				return v
			}
		}
		if opts.StorageGet != nil {
			if key, ok := strings.CutPrefix(name, "storage."); ok {
				if v, ok := opts.StorageGet(key); ok {
					return v
				}
			}
		}
		return match // unresolved: pass through unchanged
	})
}

func builtin(name string, ev flow.Event, text string, now time.Time, randInt func(lo, hi int) int) (string, bool) {
	switch name {
	case "user_id":
		return ev.UserID, true
	case "group_id":
		return ev.GroupID, true
	case "message_id":
		return ev.MessageID, true
	case "message":
		return text, true
	case "at":
		return "@" + ev.UserID, true
	case "date":
		return now.Format("2006-01-02"), true
	case "time":
		return now.Format("15:04:05"), true
	case "timestamp":
		// Unix seconds; pairs with the cooldown and data_is_today
		// conditions, which parse stored stamps numerically.
		return strconv.FormatInt(now.Unix(), 10), true
	case "year":
		return strconv.Itoa(now.Year()), true
	case "month":
		return strconv.Itoa(int(now.Month())), true
	case "day":
		return strconv.Itoa(now.Day()), true
	case "hour":
		return strconv.Itoa(now.Hour()), true
	case "minute":
		return strconv.Itoa(now.Minute()), true
	case "second":
		return strconv.Itoa(now.Second()), true
	case "weekday":
		return now.Weekday().String(), true
	}

	if bounds, ok := strings.CutPrefix(name, "random:"); ok {
		lo, hi, ok := parseRange(bounds)
		if !ok {
			return "", false
		}
		if randInt == nil {
			randInt = func(lo, hi int) int { return lo + rand.Intn(hi-lo+1) }
		}
		return fmt.Sprintf("%d", randInt(lo, hi)), true
	}
	return "", false
}

// capture resolves {$N} against the capture list, 1-based.
func capture(name string, captures []string) (string, bool) {
	idx, ok := strings.CutPrefix(name, "$")
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 1 || n > len(captures) {
		return "", false
	}
	return captures[n-1], true
}

// parseRange parses "lo-hi" with lo <= hi.
func parseRange(s string) (int, int, bool) {
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		return 0, 0, false
	}
	a, err1 := strconv.Atoi(strings.TrimSpace(lo))
	b, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || a > b {
		return 0, 0, false
	}
	return a, b, true
}
