package engine

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/store"
)

// MaxDelaySeconds bounds a delay node. The walk is cooperative and
// single-threaded per event; longer suspensions belong in a scheduled
// workflow, not a sleep.
const MaxDelaySeconds = 10

// MaxRepeatCount bounds the string_op repeat operation.
const MaxRepeatCount = 100

// runAction executes one non-trigger, non-condition node. Every failure
// is non-fatal: logged, and the walk continues. The generic HTTP action
// is the only kind that reports its own failure to the user.
func (e *Engine) runAction(w *walkState, n flow.Node) {
	switch n.Kind {
	case flow.KindDelay:
		e.runDelay(w, n)
	case flow.KindSetVar:
		w.scope.Set(n.Param("name"), e.render(w, n.Param("value")))
	case flow.KindStorage:
		e.runStorage(w, n)
	case flow.KindGlobalStorage:
		e.runGlobalStorage(w, n)
	case flow.KindLeaderboard:
		e.runLeaderboard(w, n)
	case flow.KindMath:
		e.runMath(w, n)
	case flow.KindStringOp:
		e.runStringOp(w, n)
	case flow.KindListRandom:
		e.runListRandom(w, n)
	case flow.KindAction:
		e.runEffect(w, n)
	default:
		// Unknown kinds are inert; the load-time schema should have
		// rejected them, but a walk never dies over one.
		e.log.Warn("unknown node kind, skipping", "node", n.ID, "kind", n.Kind)
	}
}

func (e *Engine) runDelay(w *walkState, n flow.Node) {
	secs := store.ParseNumber(e.render(w, n.Param("seconds")))
	if secs <= 0 {
		return
	}
	if secs > MaxDelaySeconds {
		secs = MaxDelaySeconds
	}
	e.clock.Sleep(w.ctx, time.Duration(secs*float64(time.Second)))
}

func (e *Engine) runStorage(w *walkState, n flow.Node) {
	if e.users == nil {
		e.log.Warn("storage node without a user store", "node", n.ID)
		return
	}
	key := e.render(w, n.Param("key"))
	result := n.ParamDefault("result", key)

	var err error
	switch op := n.ParamDefault("op", "get"); op {
	case "get":
		var v string
		v, err = e.users.GetDefault(w.ctx, w.ev.UserID, key, e.render(w, n.Param("default")))
		if err == nil {
			w.scope.Set(result, v)
		}
	case "set":
		err = e.users.Set(w.ctx, w.ev.UserID, key, e.render(w, n.Param("value")))
	case "increment", "decrement":
		delta := store.ParseNumber(e.render(w, n.ParamDefault("value", "1")))
		if op == "decrement" {
			delta = -delta
		}
		var next float64
		next, err = e.users.Incr(w.ctx, w.ev.UserID, key, delta)
		if err == nil {
			w.scope.Set(result, store.FormatNumber(next))
		}
	case "delete":
		err = e.users.Delete(w.ctx, w.ev.UserID, key)
	default:
		e.log.Warn("unknown storage op", "node", n.ID, "op", op)
		return
	}
	if err != nil {
		e.log.Warn("storage node failed", "node", n.ID, "key", key, "err", err)
	}
}

func (e *Engine) runGlobalStorage(w *walkState, n flow.Node) {
	if e.globals == nil {
		e.log.Warn("global_storage node without a global store", "node", n.ID)
		return
	}
	key := e.render(w, n.Param("key"))
	result := n.ParamDefault("result", key)

	var err error
	switch op := n.ParamDefault("op", "get"); op {
	case "get":
		var v string
		v, err = e.globals.GetGlobalDefault(w.ctx, key, e.render(w, n.Param("default")))
		if err == nil {
			w.scope.Set(result, v)
		}
	case "set":
		err = e.globals.SetGlobal(w.ctx, key, e.render(w, n.Param("value")))
	case "increment", "decrement":
		delta := store.ParseNumber(e.render(w, n.ParamDefault("value", "1")))
		if op == "decrement" {
			delta = -delta
		}
		var next float64
		next, err = e.globals.IncrGlobal(w.ctx, key, delta)
		if err == nil {
			w.scope.Set(result, store.FormatNumber(next))
		}
	case "delete":
		err = e.globals.DeleteGlobal(w.ctx, key)
	default:
		e.log.Warn("unknown global_storage op", "node", n.ID, "op", op)
		return
	}
	if err != nil {
		e.log.Warn("global_storage node failed", "node", n.ID, "key", key, "err", err)
	}
}

func (e *Engine) runLeaderboard(w *walkState, n flow.Node) {
	if e.ranks == nil {
		e.log.Warn("leaderboard node without a rank store", "node", n.ID)
		return
	}
	key := e.render(w, n.Param("key"))
	result := n.ParamDefault("result", "leaderboard")
	asc := n.ParamDefault("order", "desc") == "asc"

	switch op := n.ParamDefault("op", "top"); op {
	case "top":
		limit := int(store.ParseNumber(n.ParamDefault("limit", "10")))
		entries, err := e.ranks.TopN(w.ctx, key, limit, asc)
		if err != nil {
			e.log.Warn("leaderboard top failed", "node", n.ID, "key", key, "err", err)
			return
		}
		lines := make([]string, len(entries))
		for i, entry := range entries {
			lines[i] = store.FormatNumber(float64(i+1)) + ". " + entry.UserID + ": " + store.FormatNumber(entry.Value)
		}
		w.scope.Set(result, strings.Join(lines, "\n"))
		w.scope.SetList(result, lines)
		w.scope.Set(result+"_count", store.FormatNumber(float64(len(entries))))

	case "rank":
		r, ok, err := e.ranks.RankOf(w.ctx, w.ev.UserID, key, asc)
		if err != nil {
			e.log.Warn("leaderboard rank failed", "node", n.ID, "key", key, "err", err)
			return
		}
		if !ok {
			w.scope.Set(result, "0")
			w.scope.Set(result+"_value", "0")
			w.scope.Set(result+"_total", "0")
			return
		}
		w.scope.Set(result, store.FormatNumber(float64(r.Rank)))
		w.scope.Set(result+"_value", store.FormatNumber(r.Value))
		w.scope.Set(result+"_total", store.FormatNumber(float64(r.Total)))

	case "count":
		count, err := e.ranks.CountWithKey(w.ctx, key)
		if err != nil {
			e.log.Warn("leaderboard count failed", "node", n.ID, "key", key, "err", err)
			return
		}
		w.scope.Set(result, store.FormatNumber(float64(count)))

	default:
		e.log.Warn("unknown leaderboard op", "node", n.ID, "op", op)
	}
}

func (e *Engine) runMath(w *walkState, n flow.Node) {
	a := store.ParseNumber(e.render(w, n.Param("a")))
	b := store.ParseNumber(e.render(w, n.Param("b")))
	result := n.ParamDefault("result", "result")

	var out float64
	switch op := n.Param("op"); op {
	case "add":
		out = a + b
	case "sub":
		out = a - b
	case "mul":
		out = a * b
	case "div":
		if b != 0 {
			out = a / b
		}
	case "mod":
		if b != 0 {
			out = float64(int64(a) % int64(b))
		}
	case "min":
		out = a
		if b < a {
			out = b
		}
	case "max":
		out = a
		if b > a {
			out = b
		}
	case "random":
		out = float64(e.clock.RandInt(int(a), int(b)))
	default:
		e.log.Warn("unknown math op", "node", n.ID, "op", op)
		return
	}
	w.scope.Set(result, store.FormatNumber(out))
}

var titleCaser = cases.Title(language.Und)

func (e *Engine) runStringOp(w *walkState, n flow.Node) {
	value := e.render(w, n.Param("value"))
	result := n.ParamDefault("result", "result")

	switch op := n.Param("op"); op {
	case "concat":
		w.scope.Set(result, value+e.render(w, n.Param("other")))

	case "replace":
		from := e.render(w, n.Param("from"))
		if from == "" {
			w.scope.Set(result, value)
			return
		}
		w.scope.Set(result, strings.ReplaceAll(value, from, e.render(w, n.Param("to"))))

	case "split":
		sep := e.render(w, n.ParamDefault("sep", ","))
		parts := strings.Split(value, sep)
		w.scope.SetList(result, parts)
		w.scope.Set(result+"_count", store.FormatNumber(float64(len(parts))))
		w.scope.Set(result, parts[0])

	case "substring":
		runes := []rune(value)
		start := clampIndex(int(store.ParseNumber(n.Param("start"))), len(runes))
		end := clampIndex(int(store.ParseNumber(n.ParamDefault("end", store.FormatNumber(float64(len(runes)))))), len(runes))
		if start > end {
			start, end = end, start
		}
		w.scope.Set(result, string(runes[start:end]))

	case "length":
		w.scope.Set(result, store.FormatNumber(float64(len([]rune(value)))))

	case "upper":
		w.scope.Set(result, strings.ToUpper(value))
	case "lower":
		w.scope.Set(result, strings.ToLower(value))
	case "title":
		w.scope.Set(result, titleCaser.String(value))
	case "trim":
		w.scope.Set(result, strings.TrimSpace(value))

	case "contains":
		other := e.render(w, n.Param("other"))
		if strings.Contains(value, other) {
			w.scope.Set(result, "true")
		} else {
			w.scope.Set(result, "false")
		}

	case "repeat":
		count := int(store.ParseNumber(n.ParamDefault("count", "1")))
		if count < 0 {
			count = 0
		}
		if count > MaxRepeatCount {
			count = MaxRepeatCount
		}
		w.scope.Set(result, strings.Repeat(value, count))

	default:
		e.log.Warn("unknown string_op", "node", n.ID, "op", op)
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// runListRandom draws one item from the node's pipe-delimited items. When
// every item carries a ":weight" suffix with a positive number, the draw
// is weighted; otherwise it is uniform and any colon is part of the item.
// The drawn value and its index land in the context.
func (e *Engine) runListRandom(w *walkState, n flow.Node) {
	raw := e.render(w, n.Param("items"))
	items := strings.Split(raw, "|")
	if len(items) == 0 || raw == "" {
		return
	}
	result := n.ParamDefault("result", "result")

	values, weights, weighted := parseWeights(items)
	var idx int
	if weighted {
		total := 0.0
		for _, wt := range weights {
			total += wt
		}
		roll := e.clock.RandFloat() * total
		for i, wt := range weights {
			roll -= wt
			if roll < 0 {
				idx = i
				break
			}
			idx = i
		}
	} else {
		idx = e.clock.RandInt(0, len(items)-1)
		values = items
	}

	w.scope.Set(result, values[idx])
	w.scope.Set(result+"_index", store.FormatNumber(float64(idx)))
}

// parseWeights splits "value:weight" items. The weighted form applies
// only when every item parses; a single plain item falls the whole list
// back to uniform.
func parseWeights(items []string) (values []string, weights []float64, ok bool) {
	values = make([]string, len(items))
	weights = make([]float64, len(items))
	for i, item := range items {
		head, tail, found := strings.Cut(item, ":")
		if !found {
			return nil, nil, false
		}
		wt := store.ParseNumber(tail)
		if wt <= 0 {
			return nil, nil, false
		}
		values[i] = head
		weights[i] = wt
	}
	return values, weights, true
}

// runEffect dispatches the user-visible action kinds against the reply
// surface. Parameters render through the template engine first, so texts
// can carry captures, context variables, and storage reads.
func (e *Engine) runEffect(w *walkState, n flow.Node) {
	if w.rs == nil {
		e.log.Warn("action node without a reply surface", "node", n.ID)
		return
	}
	value := e.render(w, n.Param("value"))

	switch kind := n.Param("type"); kind {
	case "reply_text":
		w.rs.Reply(w.ctx, value)
	case "reply_image":
		w.rs.ReplyImage(w.ctx, value)
	case "reply_voice":
		w.rs.ReplyVoice(w.ctx, value)
	case "reply_video":
		w.rs.ReplyVideo(w.ctx, value)
	case "reply_at":
		w.rs.ReplyAt(w.ctx, e.render(w, n.ParamDefault("user", "{user_id}")), value)
	case "reply_face":
		w.rs.ReplyFace(w.ctx, value)
	case "reply_poke":
		w.rs.ReplyPoke(w.ctx, e.render(w, n.ParamDefault("user", "{user_id}")))
	case "reply_json":
		w.rs.ReplyJSON(w.ctx, value)
	case "reply_file":
		w.rs.ReplyFile(w.ctx, value, e.render(w, n.Param("name")))
	case "reply_music":
		w.rs.ReplyMusic(w.ctx, value)
	case "reply_forward":
		w.rs.ReplyForward(w.ctx, strings.Split(value, "|"))

	case "group_sign":
		w.rs.GroupSign(w.ctx)
	case "group_ban":
		seconds := int(store.ParseNumber(e.render(w, n.ParamDefault("seconds", "60"))))
		w.rs.GroupBan(w.ctx, e.render(w, n.ParamDefault("user", "{user_id}")), seconds)
	case "group_kick":
		w.rs.GroupKick(w.ctx, e.render(w, n.ParamDefault("user", "{user_id}")))
	case "group_whole_ban":
		w.rs.GroupWholeBan(w.ctx, value != "false")
	case "group_set_card":
		w.rs.GroupSetCard(w.ctx, e.render(w, n.ParamDefault("user", "{user_id}")), value)
	case "group_set_admin":
		w.rs.GroupSetAdmin(w.ctx, e.render(w, n.ParamDefault("user", "{user_id}")), value != "false")
	case "group_notice":
		w.rs.GroupNotice(w.ctx, value)

	case "recall":
		w.rs.RecallMsg(w.ctx, e.render(w, n.ParamDefault("message", "{message_id}")))

	case "call_api":
		e.runCallAPI(w, n)

	case "http":
		e.runHTTP(w, n)

	default:
		e.log.Warn("unknown action type", "node", n.ID, "type", kind)
	}
}
