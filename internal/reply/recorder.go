package reply

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Call is one recorded surface invocation: the method name followed by its
// stringified arguments, e.g. "Reply(签到成功)" or "GroupBan(u1, 60)".
type Call string

// Recorder is a Surface test double that records calls in order.
// Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) record(method string, args ...any) {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = fmt.Sprint(a)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call(method+"("+strings.Join(strs, ", ")+")"))
}

func (r *Recorder) Reply(_ context.Context, text string)          { r.record("Reply", text) }
func (r *Recorder) ReplyImage(_ context.Context, url string)      { r.record("ReplyImage", url) }
func (r *Recorder) ReplyVoice(_ context.Context, url string)      { r.record("ReplyVoice", url) }
func (r *Recorder) ReplyVideo(_ context.Context, url string)      { r.record("ReplyVideo", url) }
func (r *Recorder) ReplyAt(_ context.Context, userID, text string) {
	r.record("ReplyAt", userID, text)
}
func (r *Recorder) ReplyFace(_ context.Context, faceID string) { r.record("ReplyFace", faceID) }
func (r *Recorder) ReplyPoke(_ context.Context, userID string) { r.record("ReplyPoke", userID) }
func (r *Recorder) ReplyJSON(_ context.Context, payload string) {
	r.record("ReplyJSON", payload)
}
func (r *Recorder) ReplyFile(_ context.Context, url, name string) {
	r.record("ReplyFile", url, name)
}
func (r *Recorder) ReplyMusic(_ context.Context, url string) { r.record("ReplyMusic", url) }
func (r *Recorder) ReplyForward(_ context.Context, texts []string) {
	r.record("ReplyForward", strings.Join(texts, "|"))
}

func (r *Recorder) GroupSign(_ context.Context) { r.record("GroupSign") }
func (r *Recorder) GroupBan(_ context.Context, userID string, seconds int) {
	r.record("GroupBan", userID, seconds)
}
func (r *Recorder) GroupKick(_ context.Context, userID string) { r.record("GroupKick", userID) }
func (r *Recorder) GroupWholeBan(_ context.Context, enable bool) {
	r.record("GroupWholeBan", enable)
}
func (r *Recorder) GroupSetCard(_ context.Context, userID, card string) {
	r.record("GroupSetCard", userID, card)
}
func (r *Recorder) GroupSetAdmin(_ context.Context, userID string, enable bool) {
	r.record("GroupSetAdmin", userID, enable)
}
func (r *Recorder) GroupNotice(_ context.Context, text string) { r.record("GroupNotice", text) }

func (r *Recorder) RecallMsg(_ context.Context, messageID string) {
	r.record("RecallMsg", messageID)
}

func (r *Recorder) CallAPI(_ context.Context, action string, params map[string]string) {
	r.record("CallAPI", action, formatParams(params))
}

// formatParams renders params with sorted keys so recorded calls are
// deterministic.
func formatParams(params map[string]string) string {
	if len(params) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return "{" + strings.Join(parts, " ") + "}"
}
