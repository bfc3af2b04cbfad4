package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/store"
)

// maxResponseBytes caps how much of an HTTP response body is read into
// the execution context.
const maxResponseBytes = 1 << 20

// runCallAPI forwards a generic platform API call through the reply
// surface. The params parameter is a JSON object of strings; each value
// renders through the template engine. Malformed JSON degrades to an
// empty parameter set.
func (e *Engine) runCallAPI(w *walkState, n flow.Node) {
	params := map[string]string{}
	if raw := n.Param("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			e.log.Warn("call_api params are not a JSON string object", "node", n.ID, "err", err)
			params = map[string]string{}
		}
	}
	for k, v := range params {
		params[k] = e.render(w, v)
	}
	w.rs.CallAPI(w.ctx, e.render(w, n.Param("action")), params)
}

// runHTTP performs the generic outbound HTTP action: the one node kind
// whose failure is reported to the user rather than swallowed, because
// the call itself is the user-visible behavior.
//
// Response handling is declared on the node: "status" stores only the
// status code, "text" stores the body, "json" additionally flattens
// top-level object fields into <result>.<field> context variables, and
// "binary" stores the body base64-encoded. When a "reply" template is
// configured it renders after the response variables are set, so it can
// interpolate them.
func (e *Engine) runHTTP(w *walkState, n flow.Node) {
	url := e.render(w, n.Param("url"))
	if url == "" {
		e.log.Warn("http action without url", "node", n.ID)
		return
	}
	method := strings.ToUpper(n.ParamDefault("method", "GET"))
	result := n.ParamDefault("result", "http")

	ctx := w.ctx
	if secs := store.ParseNumber(n.Param("timeout")); secs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(secs*float64(time.Second)))
		defer cancel()
	}

	var body io.Reader
	if b := e.render(w, n.Param("body")); b != "" {
		body = strings.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		e.reportHTTPFailure(w, n, err)
		return
	}
	if raw := n.Param("headers"); raw != "" {
		headers := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &headers); err != nil {
			e.log.Warn("http headers are not a JSON string object", "node", n.ID, "err", err)
		}
		for k, v := range headers {
			req.Header.Set(k, e.render(w, v))
		}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.reportHTTPFailure(w, n, err)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		e.reportHTTPFailure(w, n, err)
		return
	}

	w.scope.Set(result+"_status", strconv.Itoa(resp.StatusCode))
	switch n.ParamDefault("response", "text") {
	case "status":
		// Status only; body discarded.
	case "json":
		w.scope.Set(result+"_body", string(data))
		flattenJSON(w.scope, result, data)
	case "binary":
		w.scope.Set(result+"_body", base64.StdEncoding.EncodeToString(data))
		w.scope.Set(result+"_size", strconv.Itoa(len(data)))
	default: // text
		w.scope.Set(result+"_body", string(data))
	}

	if tmpl := n.Param("reply"); tmpl != "" {
		w.rs.Reply(w.ctx, e.render(w, tmpl))
	}
}

// reportHTTPFailure surfaces the failure to the user; the HTTP action is
// its own failure report.
func (e *Engine) reportHTTPFailure(w *walkState, n flow.Node, err error) {
	e.log.Warn("http action failed", "node", n.ID, "err", err)
	w.rs.Reply(w.ctx, fmt.Sprintf("request failed: %v", err))
}

// flattenJSON writes the top-level fields of a JSON object into the
// context as <prefix>.<field>, stringifying scalars and re-encoding
// nested structures. Non-object payloads store nothing extra.
func flattenJSON(scope *Context, prefix string, data []byte) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return
	}
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			scope.Set(prefix+"."+k, val)
		case float64:
			scope.Set(prefix+"."+k, store.FormatNumber(val))
		case bool:
			scope.Set(prefix+"."+k, strconv.FormatBool(val))
		case nil:
			scope.Set(prefix+"."+k, "")
		default:
			if enc, err := json.Marshal(val); err == nil {
				scope.Set(prefix+"."+k, string(enc))
			}
		}
	}
}
