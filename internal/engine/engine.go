package engine

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
	"github.com/raikhel/botflow/internal/store"
	"github.com/raikhel/botflow/internal/template"
)

// DefaultMaxSteps bounds the number of node executions in one walk.
// It exists because the graph may contain connection cycles: no visited
// set is kept, so a cycle re-executes nodes until the quota stops it.
const DefaultMaxSteps = 256

// DefaultHTTPTimeout caps the generic HTTP action when a node declares no
// timeout of its own.
const DefaultHTTPTimeout = 10 * time.Second

// UserStore is the per-user key/value collaborator the engine consumes.
// *store.Store implements it.
type UserStore interface {
	Get(ctx context.Context, userID, key string) (string, bool, error)
	GetDefault(ctx context.Context, userID, key, def string) (string, error)
	Set(ctx context.Context, userID, key, value string) error
	Incr(ctx context.Context, userID, key string, delta float64) (float64, error)
	Delete(ctx context.Context, userID, key string) error
}

// GlobalStore is the unscoped key/value collaborator.
type GlobalStore interface {
	GetGlobal(ctx context.Context, key string) (string, bool, error)
	GetGlobalDefault(ctx context.Context, key, def string) (string, error)
	SetGlobal(ctx context.Context, key, value string) error
	IncrGlobal(ctx context.Context, key string, delta float64) (float64, error)
	DeleteGlobal(ctx context.Context, key string) error
}

// RankStore is the ranked storage collaborator behind leaderboard nodes.
type RankStore interface {
	TopN(ctx context.Context, key string, limit int, asc bool) ([]store.Entry, error)
	RankOf(ctx context.Context, userID, key string, asc bool) (store.Rank, bool, error)
	CountWithKey(ctx context.Context, key string) (int, error)
}

// TraceEvent records one node visit during a walk. The harness collects
// these for golden comparison; production leaves the hook nil.
type TraceEvent struct {
	Run    string        `json:"run"`
	NodeID string        `json:"node"`
	Kind   flow.NodeKind `json:"kind"`
	Port   string        `json:"port,omitempty"`
}

// Engine executes workflows. Construct with New; the zero value is not
// usable. An Engine is read-mostly after construction (the regex cache is
// internally synchronized) and safe for concurrent walks.
type Engine struct {
	regexCache *RegexCache
	clock      Clock
	runGen     RunTokenGenerator
	users      UserStore
	globals    GlobalStore
	ranks      RankStore
	httpClient *http.Client
	maxSteps   int
	log        *slog.Logger
	trace      func(TraceEvent)
}

// Option configures an Engine.
type Option func(*Engine)

// WithStores wires the storage collaborators. Any of the three may be nil;
// nodes needing a missing store degrade to no-ops.
func WithStores(users UserStore, globals GlobalStore, ranks RankStore) Option {
	return func(e *Engine) {
		e.users = users
		e.globals = globals
		e.ranks = ranks
	}
}

// WithClock replaces the system clock (tests).
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRunTokens replaces the run token generator (tests).
func WithRunTokens(g RunTokenGenerator) Option {
	return func(e *Engine) { e.runGen = g }
}

// WithMaxSteps sets the per-walk step quota.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithHTTPClient replaces the client used by the generic HTTP action.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.httpClient = c }
}

// WithRegexCacheSize bounds the regex cache.
func WithRegexCacheSize(n int) Option {
	return func(e *Engine) { e.regexCache = NewRegexCache(n) }
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTrace installs a node-visit hook. The hook runs synchronously inside
// the walk; keep it cheap.
func WithTrace(fn func(TraceEvent)) Option {
	return func(e *Engine) { e.trace = fn }
}

// New creates an Engine with default clock, UUIDv7 run tokens, default
// regex cache, and no storage collaborators.
func New(opts ...Option) *Engine {
	e := &Engine{
		regexCache: NewRegexCache(0),
		clock:      SystemClock{},
		runGen:     UUIDv7Generator{},
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		maxSteps:   DefaultMaxSteps,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// walkState carries one walk's invariants: the workflow, the inbound
// event and text, the run token, the execution context, and the step
// counter the quota checks against.
type walkState struct {
	ctx   context.Context
	wf    *flow.Workflow
	ev    flow.Event
	text  string
	run   string
	scope *Context
	rs    reply.Surface
	steps int
}

// Execute evaluates wf against one inbound message. It selects the first
// trigger whose match succeeds, seeds the context with its captures, and
// walks the graph. Returns whether the workflow fired.
func (e *Engine) Execute(ctx context.Context, wf *flow.Workflow, ev flow.Event, text string, rs reply.Surface) bool {
	for _, n := range wf.Nodes {
		if n.Kind != flow.KindTrigger {
			continue
		}
		captures, ok := e.matchTrigger(n, text)
		if !ok {
			continue
		}

		w := &walkState{
			ctx:   ctx,
			wf:    wf,
			ev:    ev,
			text:  text,
			run:   e.runGen.Generate(),
			scope: NewContext(),
			rs:    rs,
		}
		w.scope.SetCaptures(captures)

		e.log.Debug("workflow fired",
			"workflow", wf.ID, "trigger", n.ID, "run", w.run, "user", ev.UserID)
		e.walkFrom(w, n)
		return true
	}
	return false
}

// ExecuteFromTrigger is the scheduler's entry point: it locates scheduled
// and timer trigger nodes directly, bypassing match-checking, and walks
// their successors against an event carrying no message text. Returns
// whether any trigger ran.
func (e *Engine) ExecuteFromTrigger(ctx context.Context, wf *flow.Workflow, ev flow.Event, rs reply.Surface) bool {
	ran := false
	for _, n := range wf.Nodes {
		if n.Kind != flow.KindTrigger {
			continue
		}
		switch n.Param("type") {
		case "scheduled", "timer":
		default:
			continue
		}

		w := &walkState{
			ctx:   ctx,
			wf:    wf,
			ev:    ev,
			run:   e.runGen.Generate(),
			scope: NewContext(),
			rs:    rs,
		}
		e.log.Debug("scheduled trigger fired", "workflow", wf.ID, "trigger", n.ID, "run", w.run)
		e.walkFrom(w, n)
		ran = true
	}
	return ran
}

// walkFrom executes the trigger node itself (emitting its trace event)
// and recurses into its successors. Trigger successors may be wired to
// the success port or left on the implicit port; both are followed.
func (e *Engine) walkFrom(w *walkState, trigger flow.Node) {
	if !e.step(w) {
		return
	}
	e.emit(w, trigger, flow.PortSuccess)
	e.follow(w, trigger.ID, flow.PortSuccess, flow.PortDefault)
}

// walk executes one node and recurses into the connections leaving its
// resulting output port, in declaration order. The parent's side effects
// are complete before each child runs.
func (e *Engine) walk(w *walkState, n flow.Node) {
	if !e.step(w) {
		return
	}

	var ports []string
	switch n.Kind {
	case flow.KindTrigger:
		// A cycle may route back into a trigger; it re-fires like the
		// walk's entry trigger.
		ports = []string{flow.PortSuccess, flow.PortDefault}
		e.emit(w, n, flow.PortSuccess)

	case flow.KindCondition:
		if e.evalCondition(w, n) {
			ports = []string{flow.PortSuccess}
		} else {
			ports = []string{flow.PortFailure}
		}
		e.emit(w, n, ports[0])

	default:
		e.runAction(w, n)
		ports = []string{flow.PortDefault}
		e.emit(w, n, flow.PortDefault)
	}

	e.follow(w, n.ID, ports...)
}

// follow recurses into every connection leaving node id through the given
// ports, skipping dangling connections silently.
func (e *Engine) follow(w *walkState, id string, ports ...string) {
	for _, port := range ports {
		for _, conn := range w.wf.ConnectionsFrom(id, port) {
			target, ok := w.wf.NodeByID(conn.To)
			if !ok {
				continue // dangling connection: inert
			}
			e.walk(w, target)
		}
	}
}

// step enforces the per-walk quota. A false return stops the branch.
func (e *Engine) step(w *walkState) bool {
	if w.ctx.Err() != nil {
		return false
	}
	w.steps++
	if w.steps > e.maxSteps {
		e.log.Warn("walk exceeded step quota, stopping branch",
			"workflow", w.wf.ID, "run", w.run, "steps", w.steps-1, "limit", e.maxSteps)
		return false
	}
	return true
}

func (e *Engine) emit(w *walkState, n flow.Node, port string) {
	if e.trace == nil {
		return
	}
	e.trace(TraceEvent{Run: w.run, NodeID: n.ID, Kind: n.Kind, Port: port})
}

// render resolves a node parameter template against the walk's event,
// text, context, and the per-user storage namespace.
func (e *Engine) render(w *walkState, tmpl string) string {
	return template.Render(tmpl, w.ev, w.text, template.Options{
		Captures: w.scope.Captures(),
		Lookup:   w.scope.Get,
		StorageGet: func(key string) (string, bool) {
			if e.users == nil {
				return "", false
			}
			v, ok, err := e.users.Get(w.ctx, w.ev.UserID, key)
			if err != nil {
				e.log.Warn("template storage read failed", "key", key, "err", err)
				return "", false
			}
			return v, ok
		},
		Now:     e.clock.Now(),
		RandInt: e.clock.RandInt,
	})
}
