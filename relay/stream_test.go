package relay_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LubyRuffy/kanbanchat"
	"github.com/LubyRuffy/kanbanchat/auth"
	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/openaiapi"
	"github.com/LubyRuffy/kanbanchat/relay"
	"github.com/LubyRuffy/kanbanchat/sse"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func frameOf(t *testing.T, chunk openaiapi.ChatChunk) string {
	t.Helper()
	frame, err := sse.Encode(chunk)
	require.NoError(t, err)
	return string(frame)
}

func toolCallFrames(t *testing.T, args string) string {
	t.Helper()
	half := len(args) / 2
	first := openaiapi.ChatChunk{Choices: []openaiapi.ChunkChoice{{Delta: openaiapi.Delta{
		ToolCalls: []openaiapi.ToolCallDelta{{
			ID:       "call_1",
			Type:     "function",
			Function: openaiapi.ToolCallFunction{Name: kanbanchat.CreateTaskToolName, Arguments: args[:half]},
		}},
	}}}}
	second := openaiapi.ChatChunk{Choices: []openaiapi.ChunkChoice{{Delta: openaiapi.Delta{
		ToolCalls: []openaiapi.ToolCallDelta{{Function: openaiapi.ToolCallFunction{Arguments: args[half:]}}},
	}}}}
	return frameOf(t, first) + frameOf(t, second) + "data: [DONE]\n\n"
}

func newGateway(t *testing.T, hits *int32, body func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		body(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func streamBody(payload string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, payload)
	}
}

func newRelay(t *testing.T, gatewayURL string, store board.Store, creds auth.Provider) *relay.Relay {
	t.Helper()
	r, err := relay.New(relay.Config{
		GatewayURL:  gatewayURL,
		Credentials: creds,
		Store:       store,
	})
	require.NoError(t, err)
	return r
}

func userInput(text string) relay.ChatInput {
	return relay.ChatInput{Messages: []openaiapi.ChatMessage{{Role: "user", Content: text}}}
}

func pump(t *testing.T, r *relay.Relay, in relay.ChatInput) string {
	t.Helper()
	stream, err := r.Open(context.Background(), in)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, stream.Pump(context.Background(), &out, nil))
	return out.String()
}

// dataChunks 解析输出中 [DONE] 之前的全部 data chunk。
func dataChunks(t *testing.T, out string) []sse.Delta {
	t.Helper()
	var s sse.Splitter
	s.Write([]byte(out))
	var deltas []sse.Delta
	for {
		line, ok := s.Next()
		if !ok {
			return deltas
		}
		frame := sse.Classify(line)
		if frame.Kind == sse.FrameDone {
			return deltas
		}
		if frame.Kind != sse.FrameData {
			continue
		}
		delta, err := sse.DecodeDelta(frame.Payload)
		require.NoError(t, err)
		deltas = append(deltas, delta)
	}
}

func TestStream_CreateTaskTitleOnly(t *testing.T) {
	store := &memStore{}
	gw := newGateway(t, nil, streamBody(toolCallFrames(t, `{"title":"Write report"}`)))
	r := newRelay(t, gw.URL, store, auth.Static("k"))

	out := pump(t, r, userInput("add a task to write the report"))

	require.True(t, strings.HasSuffix(out, "data: [DONE]\n\n"))
	require.NotContains(t, out, "tool_calls")
	chunks := dataChunks(t, out)
	require.Len(t, chunks, 1)
	require.Equal(t, `✅ Created task **"Write report"** in To-Do.`, chunks[0].Content)
	require.NotNil(t, chunks[0].Event)
	require.Equal(t, openaiapi.EventTaskCreated, chunks[0].Event.Type)
	require.Equal(t, "task-1", chunks[0].Event.TaskID)
	require.Equal(t, kanbanchat.StatusTodo, chunks[0].Event.Status)

	inserted := store.Inserted()
	require.Len(t, inserted, 1)
	require.Equal(t, "Write report", inserted[0].Title)
	require.Equal(t, kanbanchat.StatusTodo, inserted[0].Status)
	require.Equal(t, 0, inserted[0].Position)
	require.Nil(t, inserted[0].Description)
	require.Nil(t, inserted[0].Category)
	require.Nil(t, inserted[0].DueDate)
	require.Nil(t, inserted[0].TimeEstimate)
}

func TestStream_CreateTaskAllFields(t *testing.T) {
	store := &memStore{}
	args := `{"title":"Ship","description":"release","category":"Design","due_date":"2025-01-01","time_estimate":"3h","status":"in_progress"}`
	content := openaiapi.ContentChunk("On it. ")
	gw := newGateway(t, nil, streamBody(frameOf(t, content)+toolCallFrames(t, args)))
	r := newRelay(t, gw.URL, store, auth.Static("k"))

	chunks := dataChunks(t, pump(t, r, userInput("ship it")))
	require.Len(t, chunks, 2)
	require.Equal(t, "On it. ", chunks[0].Content)
	require.Equal(t, `✅ Created task **"Ship"** in In Progress (Design) due 2025-01-01.`, chunks[1].Content)

	inserted := store.Inserted()
	require.Len(t, inserted, 1)
	require.Equal(t, kanbanchat.StatusInProgress, inserted[0].Status)
	require.Equal(t, "3h", *inserted[0].TimeEstimate)
}

func TestStream_UnknownStatusFallsBackToTodo(t *testing.T) {
	store := &memStore{}
	gw := newGateway(t, nil, streamBody(toolCallFrames(t, `{"title":"X","status":"done"}`)))
	r := newRelay(t, gw.URL, store, auth.Static("k"))

	chunks := dataChunks(t, pump(t, r, userInput("x")))
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Content, "in To-Do")
	require.Equal(t, kanbanchat.StatusTodo, store.Inserted()[0].Status)
}

func TestStream_InvalidToolArguments(t *testing.T) {
	store := &memStore{}
	gw := newGateway(t, nil, streamBody(toolCallFrames(t, `{"title": "broken`)))
	r := newRelay(t, gw.URL, store, auth.Static("k"))

	out := pump(t, r, userInput("x"))
	chunks := dataChunks(t, out)
	require.Len(t, chunks, 1)
	require.True(t, strings.HasPrefix(chunks[0].Content, "❌ Error creating task: "))
	require.Nil(t, chunks[0].Event)
	require.Empty(t, store.Inserted())
	require.True(t, strings.HasSuffix(out, "data: [DONE]\n\n"))
}

func TestStream_PersistenceFailure(t *testing.T) {
	store := &memStore{insertErr: errors.New("db down")}
	gw := newGateway(t, nil, streamBody(toolCallFrames(t, `{"title":"X"}`)))
	r := newRelay(t, gw.URL, store, auth.Static("k"))

	chunks := dataChunks(t, pump(t, r, userInput("x")))
	require.Len(t, chunks, 1)
	require.Equal(t, "❌ Failed to create task: db down", chunks[0].Content)
}

func TestStream_UpstreamEndsWithoutDone(t *testing.T) {
	store := &memStore{}
	payload := strings.TrimSuffix(toolCallFrames(t, `{"title":"X"}`), "data: [DONE]\n\n")
	gw := newGateway(t, nil, streamBody(payload))
	r := newRelay(t, gw.URL, store, auth.Static("k"))

	out := pump(t, r, userInput("x"))
	chunks := dataChunks(t, out)
	require.Len(t, chunks, 1)
	require.Equal(t, relay.IncompleteToolCallMessage, chunks[0].Content)
	require.Nil(t, chunks[0].Event)
	require.True(t, strings.HasSuffix(out, "data: [DONE]\n\n"))
	require.Empty(t, store.Inserted())
}

func TestStream_UpstreamConnectionDropped(t *testing.T) {
	store := &memStore{}
	payload := strings.TrimSuffix(toolCallFrames(t, `{"title":"X"}`), "data: [DONE]\n\n")
	gw := newGateway(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, payload)
		w.(http.Flusher).Flush()
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			return
		}
		_ = conn.Close()
	})
	r := newRelay(t, gw.URL, store, auth.Static("k"))

	stream, err := r.Open(context.Background(), userInput("x"))
	require.NoError(t, err)
	var out bytes.Buffer
	err = stream.Pump(context.Background(), &out, nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, relay.ErrDownstreamClosed)

	chunks := dataChunks(t, out.String())
	require.Len(t, chunks, 1)
	require.Equal(t, relay.IncompleteToolCallMessage, chunks[0].Content)
	require.True(t, strings.HasSuffix(out.String(), "data: [DONE]\n\n"))
	require.Empty(t, store.Inserted())
}

func TestOpen_RequestPayload(t *testing.T) {
	var got openaiapi.ChatRequest
	var authHeader string
	gw := newGateway(t, nil, func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		streamBody("data: [DONE]\n\n")(w, r)
	})
	r := newRelay(t, gw.URL, &memStore{}, auth.Static("secret"))

	in := relay.ChatInput{
		Messages: []openaiapi.ChatMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "summary please"},
		},
		Tasks: []board.Summary{{Title: "Logo", Status: "todo", Category: "Design"}},
	}
	require.Equal(t, "data: [DONE]\n\n", pump(t, r, in))

	require.Equal(t, "Bearer secret", authHeader)
	require.True(t, got.Stream)
	require.Equal(t, kanbanchat.DefaultModel, got.Model)
	require.Len(t, got.Tools, 1)
	require.Equal(t, kanbanchat.CreateTaskToolName, got.Tools[0].Function.Name)
	require.Len(t, got.Messages, 4)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Contains(t, got.Messages[0].Content, `- [todo] "Logo" (Design)`)
	require.Equal(t, "summary please", got.Messages[3].Content)
}

func TestOpen_GatewayStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		kind    relay.ErrorKind
		want    int
		message string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, kind: relay.KindRateLimited, want: http.StatusTooManyRequests, message: relay.MessageRateLimited},
		{name: "credits", status: http.StatusPaymentRequired, kind: relay.KindCreditsExhausted, want: http.StatusPaymentRequired, message: relay.MessageCreditsExhausted},
		{name: "server error", status: http.StatusBadGateway, kind: relay.KindUpstreamService, want: http.StatusInternalServerError, message: relay.MessageUpstreamService},
		{name: "bad request", status: http.StatusBadRequest, kind: relay.KindUpstreamService, want: http.StatusInternalServerError, message: relay.MessageUpstreamService},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := newGateway(t, nil, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"upstream"}`, tc.status)
			})
			r := newRelay(t, gw.URL, &memStore{}, auth.Static("k"))

			stream, err := r.Open(context.Background(), userInput("x"))
			require.Nil(t, stream)
			require.Error(t, err)
			require.Equal(t, tc.kind, relay.KindOf(err))
			require.Equal(t, tc.want, relay.StatusFromError(err))
			require.Equal(t, tc.message, relay.MessageFromError(err))
		})
	}
}

func TestOpen_MissingCredentialSkipsGateway(t *testing.T) {
	var hits int32
	gw := newGateway(t, &hits, streamBody("data: [DONE]\n\n"))
	r := newRelay(t, gw.URL, &memStore{}, auth.Static(""))

	_, err := r.Open(context.Background(), userInput("x"))
	require.Error(t, err)
	require.Equal(t, relay.KindConfiguration, relay.KindOf(err))
	require.Equal(t, http.StatusInternalServerError, relay.StatusFromError(err))
	require.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestOpen_InvalidRequest(t *testing.T) {
	var hits int32
	gw := newGateway(t, &hits, streamBody("data: [DONE]\n\n"))
	r := newRelay(t, gw.URL, &memStore{}, auth.Static("k"))

	_, err := r.Open(context.Background(), relay.ChatInput{})
	require.Equal(t, relay.KindInvalidRequest, relay.KindOf(err))
	require.Equal(t, http.StatusBadRequest, relay.StatusFromError(err))

	for _, role := range []string{"tool", "system", ""} {
		_, err = r.Open(context.Background(), relay.ChatInput{Messages: []openaiapi.ChatMessage{{Role: role, Content: "x"}}})
		require.Equal(t, relay.KindInvalidRequest, relay.KindOf(err), role)
		require.Equal(t, http.StatusBadRequest, relay.StatusFromError(err), role)
	}
	require.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPump_DownstreamClosed(t *testing.T) {
	store := &memStore{}
	head := frameOf(t, openaiapi.ContentChunk("partial"))
	tail := toolCallFrames(t, `{"title":"late"}`)
	gw := newGateway(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, head)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		_, _ = io.WriteString(w, tail)
	})
	r := newRelay(t, gw.URL, store, auth.Static("k"))

	stream, err := r.Open(context.Background(), userInput("x"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- stream.Pump(context.Background(), failingWriter{}, nil) }()
	select {
	case err := <-done:
		require.ErrorIs(t, err, relay.ErrDownstreamClosed)
	case <-time.After(3 * time.Second):
		t.Fatal("pump did not stop after downstream closed")
	}
	require.Empty(t, store.Inserted())
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := relay.New(relay.Config{Store: &memStore{}})
	require.Error(t, err)
	_, err = relay.New(relay.Config{Credentials: auth.Static("k")})
	require.Error(t, err)
}

func TestStream_UnknownCategoryIsLoggedAndKept(t *testing.T) {
	store := &memStore{}
	gw := newGateway(t, nil, streamBody(toolCallFrames(t, `{"title":"Budget","category":"Finance"}`)))
	logger, hook := logtest.NewNullLogger()
	r, err := relay.New(relay.Config{
		GatewayURL:  gw.URL,
		Credentials: auth.Static("k"),
		Store:       store,
		Logger:      logger,
	})
	require.NoError(t, err)

	chunks := dataChunks(t, pump(t, r, userInput("x")))
	require.Len(t, chunks, 1)
	require.Equal(t, `✅ Created task **"Budget"** in To-Do (Finance).`, chunks[0].Content)
	require.Equal(t, "Finance", *store.Inserted()[0].Category)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["category"] == "Finance" {
			warned = true
		}
	}
	require.True(t, warned)
}
