package reply

import (
	"context"
	"log/slog"
	"strings"
)

// Logger is a Surface implementation that writes every call as a slog
// line. The CLI run command uses it so one-shot executions show their
// would-be effects without a connected platform.
type Logger struct {
	log *slog.Logger
}

// NewLogger returns a Logger writing through l (slog.Default() when nil).
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{log: l}
}

func (l *Logger) out(method string, attrs ...any) {
	l.log.Info("reply surface call", append([]any{"method", method}, attrs...)...)
}

func (l *Logger) Reply(_ context.Context, text string)     { l.out("Reply", "text", text) }
func (l *Logger) ReplyImage(_ context.Context, url string) { l.out("ReplyImage", "url", url) }
func (l *Logger) ReplyVoice(_ context.Context, url string) { l.out("ReplyVoice", "url", url) }
func (l *Logger) ReplyVideo(_ context.Context, url string) { l.out("ReplyVideo", "url", url) }
func (l *Logger) ReplyAt(_ context.Context, userID, text string) {
	l.out("ReplyAt", "user", userID, "text", text)
}
func (l *Logger) ReplyFace(_ context.Context, faceID string) { l.out("ReplyFace", "face", faceID) }
func (l *Logger) ReplyPoke(_ context.Context, userID string) { l.out("ReplyPoke", "user", userID) }
func (l *Logger) ReplyJSON(_ context.Context, payload string) {
	l.out("ReplyJSON", "payload", payload)
}
func (l *Logger) ReplyFile(_ context.Context, url, name string) {
	l.out("ReplyFile", "url", url, "name", name)
}
func (l *Logger) ReplyMusic(_ context.Context, url string) { l.out("ReplyMusic", "url", url) }
func (l *Logger) ReplyForward(_ context.Context, texts []string) {
	l.out("ReplyForward", "texts", strings.Join(texts, "|"))
}

func (l *Logger) GroupSign(_ context.Context) { l.out("GroupSign") }
func (l *Logger) GroupBan(_ context.Context, userID string, seconds int) {
	l.out("GroupBan", "user", userID, "seconds", seconds)
}
func (l *Logger) GroupKick(_ context.Context, userID string) { l.out("GroupKick", "user", userID) }
func (l *Logger) GroupWholeBan(_ context.Context, enable bool) {
	l.out("GroupWholeBan", "enable", enable)
}
func (l *Logger) GroupSetCard(_ context.Context, userID, card string) {
	l.out("GroupSetCard", "user", userID, "card", card)
}
func (l *Logger) GroupSetAdmin(_ context.Context, userID string, enable bool) {
	l.out("GroupSetAdmin", "user", userID, "enable", enable)
}
func (l *Logger) GroupNotice(_ context.Context, text string) { l.out("GroupNotice", "text", text) }

func (l *Logger) RecallMsg(_ context.Context, messageID string) {
	l.out("RecallMsg", "message", messageID)
}

func (l *Logger) CallAPI(_ context.Context, action string, params map[string]string) {
	l.out("CallAPI", "action", action, "params", formatParams(params))
}
