package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/raikhel/botflow/internal/expr"
	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/store"
)

// evalCondition evaluates a condition node. The configured value is
// template-rendered first, so conditions can reference captures, context
// variables, and storage reads.
//
// Unknown condition kinds are true: an author experimenting with a kind
// this engine does not know gets a pass-through, not a dead branch.
// Every internal failure (storage error, expression error, malformed
// operand) is false.
func (e *Engine) evalCondition(w *walkState, n flow.Node) bool {
	kind := n.Param("type")
	value := e.render(w, n.Param("value"))

	switch kind {
	case "contains":
		return value != "" && strings.Contains(w.text, value)

	case "equals":
		return w.text == value

	case "regex":
		re, ok := e.regexCache.Get(value)
		return ok && re.MatchString(w.text)

	case "random":
		pct := store.ParseNumber(strings.TrimSuffix(value, "%"))
		return e.clock.RandFloat()*100 < pct

	case "user_id":
		return w.ev.UserID == value

	case "group_id":
		return w.ev.GroupID == value

	case "var_equals":
		name, want, ok := splitPair(value, "=")
		if !ok {
			return false
		}
		got, _ := w.scope.Get(name)
		return got == want

	case "var_gt", "var_lt":
		sep := ">"
		if kind == "var_lt" {
			sep = "<"
		}
		name, want, ok := splitPair(value, sep)
		if !ok {
			return false
		}
		got, _ := w.scope.Get(name)
		if kind == "var_gt" {
			return store.ParseNumber(got) > store.ParseNumber(want)
		}
		return store.ParseNumber(got) < store.ParseNumber(want)

	case "data_equals":
		key, want, ok := splitPair(value, "=")
		if !ok {
			return false
		}
		got, found := e.userRead(w, key)
		return found && got == want

	case "data_gt", "data_lt":
		sep := ">"
		if kind == "data_lt" {
			sep = "<"
		}
		key, want, ok := splitPair(value, sep)
		if !ok {
			return false
		}
		got, found := e.userRead(w, key)
		if !found {
			return false
		}
		if kind == "data_gt" {
			return store.ParseNumber(got) > store.ParseNumber(want)
		}
		return store.ParseNumber(got) < store.ParseNumber(want)

	case "data_is_today":
		got, found := e.userRead(w, strings.TrimSpace(value))
		if !found {
			return false
		}
		return isToday(got, e.clock.Now())

	case "cooldown":
		key, secs, ok := splitPair(value, ",")
		if !ok {
			return false
		}
		seconds := store.ParseNumber(secs)
		got, found := e.userRead(w, key)
		if !found {
			return true // never stamped: off cooldown
		}
		elapsed := e.clock.Now().Unix() - int64(store.ParseNumber(got))
		return float64(elapsed) >= seconds

	case "time_range":
		return inHourRange(value, e.clock.Now().Hour())

	case "weekday_in":
		return weekdayIn(value, e.clock.Now().Weekday())

	case "global_equals":
		key, want, ok := splitPair(value, "=")
		if !ok || e.globals == nil {
			return false
		}
		got, found, err := e.globals.GetGlobal(w.ctx, key)
		if err != nil {
			e.log.Warn("global read failed", "key", key, "err", err)
			return false
		}
		return found && got == want

	case "global_gt":
		key, want, ok := splitPair(value, ">")
		if !ok || e.globals == nil {
			return false
		}
		got, found, err := e.globals.GetGlobal(w.ctx, key)
		if err != nil {
			e.log.Warn("global read failed", "key", key, "err", err)
			return false
		}
		return found && store.ParseNumber(got) > store.ParseNumber(want)

	case "expression":
		v, err := expr.Eval(value, w.scope.ExprVars())
		if err != nil {
			e.log.Warn("expression condition failed", "node", n.ID, "err", err)
			return false
		}
		return v.Truth()
	}

	return true
}

// userRead reads a per-user key, degrading storage failures to "absent".
func (e *Engine) userRead(w *walkState, key string) (string, bool) {
	if e.users == nil {
		return "", false
	}
	v, ok, err := e.users.Get(w.ctx, w.ev.UserID, key)
	if err != nil {
		e.log.Warn("storage read failed", "key", key, "err", err)
		return "", false
	}
	return v, ok
}

// splitPair splits "key<sep>value" on the first sep, trimming whitespace.
func splitPair(s, sep string) (string, string, bool) {
	key, val, found := strings.Cut(s, sep)
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(val), true
}

// isToday reports whether a stored value names the current calendar day,
// accepting either a unix-seconds timestamp or a "2006-01-02" date.
func isToday(stored string, now time.Time) bool {
	stored = strings.TrimSpace(stored)
	if ts, err := strconv.ParseInt(stored, 10, 64); err == nil {
		then := time.Unix(ts, 0).In(now.Location())
		return then.Year() == now.Year() && then.YearDay() == now.YearDay()
	}
	return stored == now.Format("2006-01-02")
}

// inHourRange parses "start-end" hour bounds and tests hour against the
// half-open window [start, end). A window wrapping midnight, like "22-6",
// covers 22:00 through 05:59.
func inHourRange(value string, hour int) bool {
	lo, hi, found := strings.Cut(value, "-")
	if !found {
		return false
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(lo))
	end, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || start < 0 || start > 23 || end < 0 || end > 24 {
		return false
	}
	if start == end {
		return true // degenerate window: all day
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end // wraps midnight
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// weekdayIn tests the current weekday against a comma-separated list of
// named or numeric days. Numbers follow time.Weekday (0 = Sunday), with 7
// accepted as Sunday for authors counting from Monday.
func weekdayIn(value string, today time.Weekday) bool {
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if wd, ok := weekdayNames[part]; ok {
			if wd == today {
				return true
			}
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			if n == 7 {
				n = 0
			}
			if n >= 0 && n <= 6 && time.Weekday(n) == today {
				return true
			}
		}
	}
	return false
}
