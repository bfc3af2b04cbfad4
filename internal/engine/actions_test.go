package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
	"github.com/raikhel/botflow/internal/testutil"
)

func ctxVar(t *testing.T, w *walkState, name string) string {
	t.Helper()
	v, ok := w.scope.Get(name)
	require.True(t, ok, "context variable %q not set", name)
	return v
}

func TestRunAction_SetVar(t *testing.T) {
	e, _, _ := newTestEngine(t)
	w := testWalk(e, "hi")
	w.scope.SetCaptures([]string{"north"})

	e.runAction(w, testutil.Node("n", flow.KindSetVar, map[string]string{
		"name":  "region",
		"value": "the {$1}",
	}))
	assert.Equal(t, "the north", ctxVar(t, w, "region"))
}

func TestRunAction_StorageOps(t *testing.T) {
	e, s, _ := newTestEngine(t)
	ctx := context.Background()
	w := testWalk(e, "")

	// get with declared default.
	e.runAction(w, testutil.Node("n", flow.KindStorage, map[string]string{
		"op": "get", "key": "points", "default": "0", "result": "pts",
	}))
	assert.Equal(t, "0", ctxVar(t, w, "pts"))

	// increment writes back and exposes the new value.
	e.runAction(w, testutil.Node("n", flow.KindStorage, map[string]string{
		"op": "increment", "key": "points", "value": "5", "result": "pts",
	}))
	assert.Equal(t, "5", ctxVar(t, w, "pts"))

	e.runAction(w, testutil.Node("n", flow.KindStorage, map[string]string{
		"op": "decrement", "key": "points", "value": "2", "result": "pts",
	}))
	assert.Equal(t, "3", ctxVar(t, w, "pts"))

	v, _, err := s.Get(ctx, "u1", "points")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	// set and delete.
	e.runAction(w, testutil.Node("n", flow.KindStorage, map[string]string{
		"op": "set", "key": "title", "value": "captain",
	}))
	v, _, err = s.Get(ctx, "u1", "title")
	require.NoError(t, err)
	assert.Equal(t, "captain", v)

	e.runAction(w, testutil.Node("n", flow.KindStorage, map[string]string{
		"op": "delete", "key": "title",
	}))
	_, ok, err := s.Get(ctx, "u1", "title")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunAction_GlobalStorageOps(t *testing.T) {
	e, s, _ := newTestEngine(t)
	w := testWalk(e, "")

	e.runAction(w, testutil.Node("n", flow.KindGlobalStorage, map[string]string{
		"op": "increment", "key": "total_signins", "result": "total",
	}))
	assert.Equal(t, "1", ctxVar(t, w, "total"))

	v, _, err := s.GetGlobal(context.Background(), "total_signins")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestRunAction_Leaderboard(t *testing.T) {
	e, s, _ := newTestEngine(t)
	ctx := context.Background()
	for user, score := range map[string]string{"u1": "30", "u2": "50", "u3": "10"} {
		require.NoError(t, s.Set(ctx, user, "score", score))
	}
	w := testWalk(e, "")

	e.runAction(w, testutil.Node("n", flow.KindLeaderboard, map[string]string{
		"op": "top", "key": "score", "limit": "2", "result": "board",
	}))
	assert.Equal(t, "1. u2: 50\n2. u1: 30", ctxVar(t, w, "board"))
	assert.Equal(t, "2", ctxVar(t, w, "board_count"))

	e.runAction(w, testutil.Node("n", flow.KindLeaderboard, map[string]string{
		"op": "rank", "key": "score", "result": "my",
	}))
	assert.Equal(t, "2", ctxVar(t, w, "my"))
	assert.Equal(t, "30", ctxVar(t, w, "my_value"))
	assert.Equal(t, "3", ctxVar(t, w, "my_total"))

	e.runAction(w, testutil.Node("n", flow.KindLeaderboard, map[string]string{
		"op": "count", "key": "score", "result": "players",
	}))
	assert.Equal(t, "3", ctxVar(t, w, "players"))
}

func TestRunAction_Math(t *testing.T) {
	e, _, clock := newTestEngine(t)
	w := testWalk(e, "")

	testCases := []struct {
		op   string
		a, b string
		want string
	}{
		{"add", "2", "3", "5"},
		{"sub", "2", "3", "-1"},
		{"mul", "4", "2.5", "10"},
		{"div", "9", "2", "4.5"},
		{"div", "9", "0", "0"},
		{"mod", "9", "4", "1"},
		{"mod", "9", "0", "0"},
		{"min", "3", "-2", "-2"},
		{"max", "3", "-2", "3"},
	}
	for _, tc := range testCases {
		t.Run(tc.op+"_"+tc.a+"_"+tc.b, func(t *testing.T) {
			e.runAction(w, testutil.Node("n", flow.KindMath, map[string]string{
				"op": tc.op, "a": tc.a, "b": tc.b, "result": "r",
			}))
			assert.Equal(t, tc.want, ctxVar(t, w, "r"))
		})
	}

	clock.QueueInt(4)
	e.runAction(w, testutil.Node("n", flow.KindMath, map[string]string{
		"op": "random", "a": "1", "b": "6", "result": "roll",
	}))
	assert.Equal(t, "4", ctxVar(t, w, "roll"))
}

func TestRunAction_StringOps(t *testing.T) {
	e, _, _ := newTestEngine(t)
	w := testWalk(e, "")

	run := func(data map[string]string) {
		e.runAction(w, testutil.Node("n", flow.KindStringOp, data))
	}

	run(map[string]string{"op": "concat", "value": "foo", "other": "bar", "result": "r"})
	assert.Equal(t, "foobar", ctxVar(t, w, "r"))

	run(map[string]string{"op": "replace", "value": "a-b-c", "from": "-", "to": "+", "result": "r"})
	assert.Equal(t, "a+b+c", ctxVar(t, w, "r"))

	run(map[string]string{"op": "split", "value": "x,y,z", "sep": ",", "result": "parts"})
	assert.Equal(t, "x", ctxVar(t, w, "parts"))
	assert.Equal(t, "3", ctxVar(t, w, "parts_count"))
	list, ok := w.scope.List("parts")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y", "z"}, list)

	run(map[string]string{"op": "substring", "value": "你好世界", "start": "1", "end": "3", "result": "r"})
	assert.Equal(t, "好世", ctxVar(t, w, "r"))

	run(map[string]string{"op": "length", "value": "你好ab", "result": "r"})
	assert.Equal(t, "4", ctxVar(t, w, "r"))

	run(map[string]string{"op": "upper", "value": "go", "result": "r"})
	assert.Equal(t, "GO", ctxVar(t, w, "r"))

	run(map[string]string{"op": "title", "value": "hello world", "result": "r"})
	assert.Equal(t, "Hello World", ctxVar(t, w, "r"))

	run(map[string]string{"op": "trim", "value": "  pad  ", "result": "r"})
	assert.Equal(t, "pad", ctxVar(t, w, "r"))

	run(map[string]string{"op": "contains", "value": "haystack", "other": "stack", "result": "r"})
	assert.Equal(t, "true", ctxVar(t, w, "r"))

	run(map[string]string{"op": "repeat", "value": "ab", "count": "3", "result": "r"})
	assert.Equal(t, "ababab", ctxVar(t, w, "r"))

	// Repeat is bounded.
	run(map[string]string{"op": "repeat", "value": "x", "count": "100000", "result": "r"})
	assert.Len(t, ctxVar(t, w, "r"), MaxRepeatCount)
}

func TestRunAction_ListRandom(t *testing.T) {
	e, _, clock := newTestEngine(t)
	w := testWalk(e, "")

	clock.QueueInt(2)
	e.runAction(w, testutil.Node("n", flow.KindListRandom, map[string]string{
		"items": "red|green|blue", "result": "color",
	}))
	assert.Equal(t, "blue", ctxVar(t, w, "color"))
	assert.Equal(t, "2", ctxVar(t, w, "color_index"))
}

func TestRunAction_ListRandomWeighted(t *testing.T) {
	e, _, clock := newTestEngine(t)
	w := testWalk(e, "")

	// Weights 1|3: a roll of 0.5 lands in the second item (0.5*4=2 > 1).
	clock.QueueFloat(0.5)
	e.runAction(w, testutil.Node("n", flow.KindListRandom, map[string]string{
		"items": "rare:1|common:3", "result": "drop",
	}))
	assert.Equal(t, "common", ctxVar(t, w, "drop"))
	assert.Equal(t, "1", ctxVar(t, w, "drop_index"))

	// A roll near zero lands in the first.
	clock.QueueFloat(0.01)
	e.runAction(w, testutil.Node("n", flow.KindListRandom, map[string]string{
		"items": "rare:1|common:3", "result": "drop2",
	}))
	assert.Equal(t, "rare", ctxVar(t, w, "drop2"))
}

func TestRunAction_Delay(t *testing.T) {
	e, _, clock := newTestEngine(t)
	w := testWalk(e, "")

	e.runAction(w, testutil.Node("n", flow.KindDelay, map[string]string{"seconds": "2"}))
	// Bounded: a huge delay clamps to the cap.
	e.runAction(w, testutil.Node("n", flow.KindDelay, map[string]string{"seconds": "3600"}))

	require.Len(t, clock.Slept(), 2)
	assert.Equal(t, 2*time.Second, clock.Slept()[0])
	assert.Equal(t, time.Duration(MaxDelaySeconds)*time.Second, clock.Slept()[1])
}

func TestRunEffect_ReplyAndModeration(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	w := testWalk(e, "hello")
	w.rs = rec
	w.scope.Set("target", "u9")

	e.runAction(w, testutil.Node("n", flow.KindAction, map[string]string{
		"type": "reply_text", "value": "hi {user_id}",
	}))
	e.runAction(w, testutil.Node("n", flow.KindAction, map[string]string{
		"type": "reply_at", "value": "welcome",
	}))
	e.runAction(w, testutil.Node("n", flow.KindAction, map[string]string{
		"type": "group_ban", "user": "{target}", "seconds": "60",
	}))
	e.runAction(w, testutil.Node("n", flow.KindAction, map[string]string{
		"type": "recall",
	}))
	e.runAction(w, testutil.Node("n", flow.KindAction, map[string]string{
		"type": "call_api", "action": "set_emoji", "params": `{"id": "{message_id}", "emoji": "1"}`,
	}))

	assert.Equal(t, []reply.Call{
		"Reply(hi u1)",
		"ReplyAt(u1, welcome)",
		"GroupBan(u9, 60)",
		"RecallMsg(m1)",
		"CallAPI(set_emoji, {emoji=1 id=m1})",
	}, rec.Calls())
}

func TestRunAction_StorageErrorsAreNonFatal(t *testing.T) {
	// No stores wired at all: every storage-backed node degrades to a
	// logged no-op and the walk carries on.
	e := New(WithClock(testutil.NewClock(testNow)))
	w := testWalk(e, "")

	e.runAction(w, testutil.Node("n", flow.KindStorage, map[string]string{"op": "get", "key": "k", "result": "r"}))
	e.runAction(w, testutil.Node("n", flow.KindGlobalStorage, map[string]string{"op": "set", "key": "k", "value": "v"}))
	e.runAction(w, testutil.Node("n", flow.KindLeaderboard, map[string]string{"key": "k", "result": "r"}))

	_, ok := w.scope.Get("r")
	assert.False(t, ok)
}
