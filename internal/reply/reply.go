// Package reply defines the outbound message surface the engine's action
// nodes call. The engine owns no messaging protocol; implementations
// adapt these calls to whatever platform hosts the bot.
//
// All calls are fire-and-forget from the engine's point of view:
// implementations are expected to swallow their own errors (moderation
// calls in particular) and never block a walk longer than a normal
// network round trip.
package reply

import "context"

// Surface is the full set of user-visible effects an action node can
// request. MessageID-taking calls reference the inbound message that
// started the walk.
type Surface interface {
	// Plain and typed replies.
	Reply(ctx context.Context, text string)
	ReplyImage(ctx context.Context, url string)
	ReplyVoice(ctx context.Context, url string)
	ReplyVideo(ctx context.Context, url string)
	ReplyAt(ctx context.Context, userID, text string)
	ReplyFace(ctx context.Context, faceID string)
	ReplyPoke(ctx context.Context, userID string)
	ReplyJSON(ctx context.Context, payload string)
	ReplyFile(ctx context.Context, url, name string)
	ReplyMusic(ctx context.Context, url string)
	ReplyForward(ctx context.Context, texts []string)

	// Group moderation. Implementations swallow errors.
	GroupSign(ctx context.Context)
	GroupBan(ctx context.Context, userID string, seconds int)
	GroupKick(ctx context.Context, userID string)
	GroupWholeBan(ctx context.Context, enable bool)
	GroupSetCard(ctx context.Context, userID, card string)
	GroupSetAdmin(ctx context.Context, userID string, enable bool)
	GroupNotice(ctx context.Context, text string)

	// RecallMsg retracts the inbound message.
	RecallMsg(ctx context.Context, messageID string)

	// CallAPI is the generic platform escape hatch.
	CallAPI(ctx context.Context, action string, params map[string]string)
}
