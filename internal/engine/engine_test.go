package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
	"github.com/raikhel/botflow/internal/store"
	"github.com/raikhel/botflow/internal/testutil"
)

func TestExecute_NoTriggerMatches(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t", "exact", "ping"),
			testutil.ReplyText("r", "pong"),
		},
		[]flow.Connection{testutil.Connect("t", "r")},
	)

	fired := e.Execute(context.Background(), wf, testEvent, "pang", rec)
	assert.False(t, fired)
	assert.Empty(t, rec.Calls())
}

func TestExecute_FirstMatchingTriggerWins(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t1", "contains", "hello"),
			testutil.Trigger("t2", "contains", "hello world"),
			testutil.ReplyText("r1", "first"),
			testutil.ReplyText("r2", "second"),
		},
		[]flow.Connection{
			testutil.Connect("t1", "r1"),
			testutil.Connect("t2", "r2"),
		},
	)

	// Both triggers would match; only the first declared one fires.
	fired := e.Execute(context.Background(), wf, testEvent, "hello world", rec)
	require.True(t, fired)
	assert.Equal(t, []reply.Call{"Reply(first)"}, rec.Calls())
}

func TestExecute_ConditionRoutesPorts(t *testing.T) {
	e, _, _ := newTestEngine(t)
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t", "startswith", "guess "),
			testutil.Condition("c", "contains", "42"),
			testutil.ReplyText("yes", "correct"),
			testutil.ReplyText("no", "wrong"),
		},
		[]flow.Connection{
			testutil.Connect("t", "c"),
			testutil.ConnectPort("c", "yes", flow.PortSuccess),
			testutil.ConnectPort("c", "no", flow.PortFailure),
		},
	)

	rec := reply.NewRecorder()
	require.True(t, e.Execute(context.Background(), wf, testEvent, "guess 42", rec))
	assert.Equal(t, []reply.Call{"Reply(correct)"}, rec.Calls())

	rec.Reset()
	require.True(t, e.Execute(context.Background(), wf, testEvent, "guess 7", rec))
	assert.Equal(t, []reply.Call{"Reply(wrong)"}, rec.Calls())
}

func TestExecute_SuccessorsRunInDeclarationOrder(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t", "exact", "go"),
			testutil.ReplyText("a", "one"),
			testutil.ReplyText("b", "two"),
			testutil.ReplyText("c", "three"),
		},
		[]flow.Connection{
			// Declaration order of connections, not node order, decides.
			testutil.Connect("t", "b"),
			testutil.Connect("t", "a"),
			testutil.Connect("b", "c"),
		},
	)

	require.True(t, e.Execute(context.Background(), wf, testEvent, "go", rec))
	// Depth-first: b and its subtree complete before a starts.
	assert.Equal(t, []reply.Call{"Reply(two)", "Reply(three)", "Reply(one)"}, rec.Calls())
}

func TestExecute_DanglingConnectionIsInert(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t", "exact", "go"),
			testutil.ReplyText("r", "ok"),
		},
		[]flow.Connection{
			testutil.Connect("t", "ghost"),
			testutil.Connect("t", "r"),
		},
	)

	require.True(t, e.Execute(context.Background(), wf, testEvent, "go", rec))
	assert.Equal(t, []reply.Call{"Reply(ok)"}, rec.Calls())
}

func TestExecute_TriggerFollowsSuccessAndImplicitPorts(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t", "exact", "go"),
			testutil.ReplyText("a", "implicit"),
			testutil.ReplyText("b", "explicit"),
		},
		[]flow.Connection{
			testutil.ConnectPort("t", "b", flow.PortSuccess),
			testutil.Connect("t", "a"),
		},
	)

	require.True(t, e.Execute(context.Background(), wf, testEvent, "go", rec))
	// Success-port successors run before implicit-port ones.
	assert.Equal(t, []reply.Call{"Reply(explicit)", "Reply(implicit)"}, rec.Calls())
}

func TestExecute_CycleStopsAtStepQuota(t *testing.T) {
	e, _, _ := newTestEngine(t, WithMaxSteps(10))
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t", "exact", "loop"),
			testutil.ReplyText("a", "tick"),
			testutil.ReplyText("b", "tock"),
		},
		[]flow.Connection{
			testutil.Connect("t", "a"),
			testutil.Connect("a", "b"),
			testutil.Connect("b", "a"),
		},
	)

	require.True(t, e.Execute(context.Background(), wf, testEvent, "loop", rec))
	// Quota 10 = trigger + 9 action executions; nodes re-execute because
	// no visited set is kept.
	calls := rec.Calls()
	require.Len(t, calls, 9)
	assert.Equal(t, reply.Call("Reply(tick)"), calls[0])
	assert.Equal(t, reply.Call("Reply(tock)"), calls[1])
	assert.Equal(t, reply.Call("Reply(tick)"), calls[8])
}

func TestExecute_CapturesFlowIntoTemplates(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t", "regex", `^我叫(\S+)$`),
			testutil.ReplyText("r", "你好，{$1}！"),
		},
		[]flow.Connection{testutil.Connect("t", "r")},
	)

	require.True(t, e.Execute(context.Background(), wf, testEvent, "我叫小明", rec))
	assert.Equal(t, []reply.Call{"Reply(你好，小明！)"}, rec.Calls())
}

func TestExecute_SignInEndToEnd(t *testing.T) {
	signin := func() *flow.Workflow {
		return testutil.Workflow("signin",
			[]flow.Node{
				testutil.Trigger("t", "contains", "签到"),
				testutil.Condition("cool", "cooldown", "lastSignin,86400"),
				testutil.Node("stamp", flow.KindStorage, map[string]string{
					"op": "set", "key": "lastSignin", "value": "{timestamp}",
				}),
				testutil.Node("pts", flow.KindStorage, map[string]string{
					"op": "increment", "key": "points", "value": "10", "result": "points",
				}),
				testutil.ReplyText("ok", "签到成功！积分 {points}"),
				testutil.ReplyText("dup", "今天已签到"),
			},
			[]flow.Connection{
				testutil.Connect("t", "cool"),
				testutil.ConnectPort("cool", "stamp", flow.PortSuccess),
				testutil.Connect("stamp", "pts"),
				testutil.Connect("pts", "ok"),
				testutil.ConnectPort("cool", "dup", flow.PortFailure),
			},
		)
	}

	t.Run("first signin succeeds", func(t *testing.T) {
		e, s, _ := newTestEngine(t)
		rec := reply.NewRecorder()

		require.True(t, e.Execute(context.Background(), signin(), testEvent, "签到", rec))
		assert.Equal(t, []reply.Call{"Reply(签到成功！积分 10)"}, rec.Calls())

		v, _, err := s.Get(context.Background(), "u1", "points")
		require.NoError(t, err)
		assert.Equal(t, "10", v)
	})

	t.Run("repeat within cooldown refuses", func(t *testing.T) {
		e, s, _ := newTestEngine(t)
		rec := reply.NewRecorder()
		ctx := context.Background()

		recent := testNow.Add(-time.Hour).Unix()
		require.NoError(t, s.Set(ctx, "u1", "lastSignin", store.FormatNumber(float64(recent))))

		require.True(t, e.Execute(ctx, signin(), testEvent, "签到", rec))
		assert.Equal(t, []reply.Call{"Reply(今天已签到)"}, rec.Calls())

		// No points awarded on the failure branch.
		_, ok, err := s.Get(ctx, "u1", "points")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stale stamp signs in again", func(t *testing.T) {
		e, s, _ := newTestEngine(t)
		rec := reply.NewRecorder()
		ctx := context.Background()

		old := testNow.Add(-48 * time.Hour).Unix()
		require.NoError(t, s.Set(ctx, "u1", "lastSignin", store.FormatNumber(float64(old))))

		require.True(t, e.Execute(ctx, signin(), testEvent, "每日签到", rec))
		assert.Equal(t, []reply.Call{"Reply(签到成功！积分 10)"}, rec.Calls())
	})
}

func TestExecute_DeterministicTraceAndOutput(t *testing.T) {
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t", "startswith", "roll"),
			testutil.Node("dice", flow.KindMath, map[string]string{
				"op": "random", "a": "1", "b": "6", "result": "roll",
			}),
			testutil.Condition("big", "var_gt", "roll>3"),
			testutil.ReplyText("hi", "high {roll}"),
			testutil.ReplyText("lo", "low {roll}"),
		},
		[]flow.Connection{
			testutil.Connect("t", "dice"),
			testutil.Connect("dice", "big"),
			testutil.ConnectPort("big", "hi", flow.PortSuccess),
			testutil.ConnectPort("big", "lo", flow.PortFailure),
		},
	)

	runOnce := func(t *testing.T) ([]TraceEvent, []reply.Call) {
		t.Helper()
		var trace []TraceEvent
		e, _, clock := newTestEngine(t, WithTrace(func(ev TraceEvent) {
			trace = append(trace, ev)
		}))
		clock.QueueInt(5)
		rec := reply.NewRecorder()
		require.True(t, e.Execute(context.Background(), wf, testEvent, "roll d6", rec))
		return trace, rec.Calls()
	}

	trace1, calls1 := runOnce(t)
	trace2, calls2 := runOnce(t)

	assert.Equal(t, trace1, trace2, "identical inputs walk identically")
	assert.Equal(t, calls1, calls2)
	assert.Equal(t, []reply.Call{"Reply(high 5)"}, calls1)
	assert.Equal(t, []TraceEvent{
		{Run: "run-1", NodeID: "t", Kind: flow.KindTrigger, Port: flow.PortSuccess},
		{Run: "run-1", NodeID: "dice", Kind: flow.KindMath},
		{Run: "run-1", NodeID: "big", Kind: flow.KindCondition, Port: flow.PortSuccess},
		{Run: "run-1", NodeID: "hi", Kind: flow.KindAction},
	}, trace1)
}

func TestExecuteFromTrigger_FiresOnlyScheduledTriggers(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("live", "contains", "hi"),
			testutil.Trigger("cron", "scheduled", "0 8 * * *"),
			testutil.ReplyText("greet", "hello"),
			testutil.ReplyText("report", "daily report"),
		},
		[]flow.Connection{
			testutil.Connect("live", "greet"),
			testutil.Connect("cron", "report"),
		},
	)

	ran := e.ExecuteFromTrigger(context.Background(), wf, flow.Event{GroupID: "g1"}, rec)
	require.True(t, ran)
	assert.Equal(t, []reply.Call{"Reply(daily report)"}, rec.Calls())
}

func TestExecuteFromTrigger_NoScheduledTriggers(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("live", "contains", "hi"),
			testutil.ReplyText("greet", "hello"),
		},
		[]flow.Connection{testutil.Connect("live", "greet")},
	)

	assert.False(t, e.ExecuteFromTrigger(context.Background(), wf, flow.Event{}, rec))
	assert.Empty(t, rec.Calls())
}

func TestExecute_CancelledContextStopsWalk(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("t", "exact", "go"),
			testutil.ReplyText("r", "never"),
		},
		[]flow.Connection{testutil.Connect("t", "r")},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.Execute(ctx, wf, testEvent, "go", rec)
	assert.Empty(t, rec.Calls())
}
