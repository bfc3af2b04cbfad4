package engine

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
	"github.com/raikhel/botflow/internal/testutil"
)

func httpNode(data map[string]string) flow.Node {
	data["type"] = "http"
	return testutil.Node("h", flow.KindAction, data)
}

func TestRunHTTP_TextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		rw.Write([]byte("pong"))
	}))
	defer srv.Close()

	e, _, _ := newTestEngine(t)
	w := testWalk(e, "")
	w.rs = reply.NewRecorder()

	e.runAction(w, httpNode(map[string]string{
		"url": srv.URL, "result": "ping",
	}))

	assert.Equal(t, "200", ctxVar(t, w, "ping_status"))
	assert.Equal(t, "pong", ctxVar(t, w, "ping_body"))
}

func TestRunHTTP_JSONFlattensTopLevelFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.Write([]byte(`{"city":"上海","temp":23.5,"rain":false,"detail":{"wind":3}}`))
	}))
	defer srv.Close()

	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	w := testWalk(e, "")
	w.rs = rec

	e.runAction(w, httpNode(map[string]string{
		"url":      srv.URL,
		"response": "json",
		"result":   "weather",
		"reply":    "{weather.city}: {weather.temp}°C",
	}))

	assert.Equal(t, "上海", ctxVar(t, w, "weather.city"))
	assert.Equal(t, "23.5", ctxVar(t, w, "weather.temp"))
	assert.Equal(t, "false", ctxVar(t, w, "weather.rain"))
	assert.Equal(t, `{"wind":3}`, ctxVar(t, w, "weather.detail"))

	// The reply template renders after the response lands in the context.
	assert.Equal(t, []reply.Call{"Reply(上海: 23.5°C)"}, rec.Calls())
}

func TestRunHTTP_StatusOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	e, _, _ := newTestEngine(t)
	w := testWalk(e, "")
	w.rs = reply.NewRecorder()

	e.runAction(w, httpNode(map[string]string{
		"url": srv.URL, "response": "status", "result": "r",
	}))

	assert.Equal(t, "204", ctxVar(t, w, "r_status"))
	_, ok := w.scope.Get("r_body")
	assert.False(t, ok, "status mode discards the body")
}

func TestRunHTTP_BinaryBase64(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Write(payload)
	}))
	defer srv.Close()

	e, _, _ := newTestEngine(t)
	w := testWalk(e, "")
	w.rs = reply.NewRecorder()

	e.runAction(w, httpNode(map[string]string{
		"url": srv.URL, "response": "binary", "result": "img",
	}))

	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), ctxVar(t, w, "img_body"))
	assert.Equal(t, "6", ctxVar(t, w, "img_size"))
}

func TestRunHTTP_PostBodyAndHeadersAreTemplated(t *testing.T) {
	var gotBody string
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		gotHeader = r.Header.Get("X-User")
		rw.Write([]byte("ok"))
	}))
	defer srv.Close()

	e, _, _ := newTestEngine(t)
	w := testWalk(e, "")
	w.rs = reply.NewRecorder()

	e.runAction(w, httpNode(map[string]string{
		"url":     srv.URL,
		"method":  "post",
		"body":    `{"user":"{user_id}"}`,
		"headers": `{"X-User":"{user_id}"}`,
		"result":  "r",
	}))

	assert.Equal(t, `{"user":"u1"}`, gotBody)
	assert.Equal(t, "u1", gotHeader)
	assert.Equal(t, "200", ctxVar(t, w, "r_status"))
}

func TestRunHTTP_FailureIsReportedToUser(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rec := reply.NewRecorder()
	w := testWalk(e, "")
	w.rs = rec

	// Unroutable address: the request itself fails.
	e.runAction(w, httpNode(map[string]string{
		"url": "http://127.0.0.1:1/nope", "result": "r",
	}))

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, string(calls[0]), "Reply(request failed: ")
	_, ok := w.scope.Get("r_status")
	assert.False(t, ok)
}

func TestRunHTTP_URLIsTemplated(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		rw.Write([]byte("ok"))
	}))
	defer srv.Close()

	e, _, _ := newTestEngine(t)
	w := testWalk(e, "")
	w.rs = reply.NewRecorder()
	w.scope.Set("city", "beijing")

	e.runAction(w, httpNode(map[string]string{
		"url": srv.URL + "/weather/{city}", "result": "r",
	}))
	assert.Equal(t, "/weather/beijing", gotPath)
}
