package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/raikhel/botflow/internal/flow"
)

var testEvent = flow.Event{
	UserID:    "10001",
	GroupID:   "20002",
	MessageID: "m-1",
}

func TestRender_NoPlaceholdersIsIdentity(t *testing.T) {
	for _, s := range []string{"", "plain text", "closing } only", "签到"} {
		assert.Equal(t, s, Render(s, testEvent, "", Options{}))
	}
}

func TestRender_EventBuiltins(t *testing.T) {
	got := Render("{at} ({user_id}) in {group_id} said {message}", testEvent, "hi", Options{})
	assert.Equal(t, "@10001 (10001) in 20002 said hi", got)
}

func TestRender_ClockBuiltins(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC) // a Saturday
	opts := Options{Now: now}

	assert.Equal(t, "2024-03-09", Render("{date}", testEvent, "", opts))
	assert.Equal(t, "07:05:02", Render("{time}", testEvent, "", opts))
	assert.Equal(t, "2024/3/9 7:5:2", Render("{year}/{month}/{day} {hour}:{minute}:{second}", testEvent, "", opts))
	assert.Equal(t, "Saturday", Render("{weekday}", testEvent, "", opts))
	assert.Equal(t, "1709967902", Render("{timestamp}", testEvent, "", opts))
}

func TestRender_BoundedRandom(t *testing.T) {
	opts := Options{
		RandInt: func(lo, hi int) int {
			assert.Equal(t, 1, lo)
			assert.Equal(t, 6, hi)
			return 4
		},
	}
	assert.Equal(t, "rolled 4", Render("rolled {random:1-6}", testEvent, "", opts))

	// Malformed bounds pass through unresolved.
	assert.Equal(t, "{random:6-1}", Render("{random:6-1}", testEvent, "", Options{}))
	assert.Equal(t, "{random:x-y}", Render("{random:x-y}", testEvent, "", Options{}))
}

func TestRender_Captures(t *testing.T) {
	opts := Options{Captures: []string{"a", "b"}}
	assert.Equal(t, "a-b", Render("{$1}-{$2}", testEvent, "", opts))

	// Out-of-range capture indexes pass through.
	assert.Equal(t, "{$3}", Render("{$3}", testEvent, "", opts))
	assert.Equal(t, "{$0}", Render("{$0}", testEvent, "", opts))
}

func TestRender_ContextLookup(t *testing.T) {
	vars := map[string]string{"count": "3", "name": "kai"}
	opts := Options{
		Lookup: func(name string) (string, bool) {
			v, ok := vars[name]
			return v, ok
		},
	}
	assert.Equal(t, "kai has 3", Render("{name} has {count}", testEvent, "", opts))
}

func TestRender_StorageNamespace(t *testing.T) {
	opts := Options{
		StorageGet: func(key string) (string, bool) {
			if key == "points" {
				return "120", true
			}
			return "", false
		},
	}
	assert.Equal(t, "120 points", Render("{storage.points} points", testEvent, "", opts))
	assert.Equal(t, "{storage.missing}", Render("{storage.missing}", testEvent, "", opts))
}

func TestRender_UnresolvedPassesThrough(t *testing.T) {
	assert.Equal(t, "{nope} and {also.nope}", Render("{nope} and {also.nope}", testEvent, "", Options{}))
}

func TestRender_BuiltinsWinOverContext(t *testing.T) {
	opts := Options{
		Lookup: func(name string) (string, bool) { return "shadowed", true },
	}
	assert.Equal(t, "10001", Render("{user_id}", testEvent, "", opts))
}
