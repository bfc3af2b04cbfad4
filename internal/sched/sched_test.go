package sched

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raikhel/botflow/internal/engine"
	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
	"github.com/raikhel/botflow/internal/testutil"
)

func scheduledWorkflow(id, text string) *flow.Workflow {
	return testutil.Workflow(id,
		[]flow.Node{
			testutil.Trigger("cron", "scheduled", "*"),
			testutil.ReplyText("r", text),
		},
		[]flow.Connection{testutil.Connect("cron", "r")},
	)
}

func TestTick_FiresScheduledTriggersOnly(t *testing.T) {
	live := testutil.Workflow("live",
		[]flow.Node{
			testutil.Trigger("t", "contains", "hi"),
			testutil.ReplyText("r", "hello"),
		},
		[]flow.Connection{testutil.Connect("t", "r")},
	)
	rec := reply.NewRecorder()
	s := New(engine.New(), []*flow.Workflow{
		scheduledWorkflow("a", "report A"),
		live,
		scheduledWorkflow("b", "report B"),
	}, rec)

	ran := s.Tick(context.Background())
	assert.Equal(t, 2, ran)
	assert.Equal(t, []reply.Call{"Reply(report A)", "Reply(report B)"}, rec.Calls())
}

func TestTick_EmptyEventRendersBlankIdentity(t *testing.T) {
	rec := reply.NewRecorder()
	wf := testutil.Workflow("wf",
		[]flow.Node{
			testutil.Trigger("cron", "timer", "60"),
			testutil.ReplyText("r", "user={user_id}"),
		},
		[]flow.Connection{testutil.Connect("cron", "r")},
	)
	s := New(engine.New(), []*flow.Workflow{wf}, rec)

	require.Equal(t, 1, s.Tick(context.Background()))
	assert.Equal(t, []reply.Call{"Reply(user=)"}, rec.Calls())
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	rec := reply.NewRecorder()
	s := New(engine.New(), []*flow.Workflow{scheduledWorkflow("a", "tick")}, rec,
		WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return len(rec.Calls()) >= 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
