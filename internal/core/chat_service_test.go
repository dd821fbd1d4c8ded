package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sussi.app/classroom-monitor/internal/store"
)

// fakeLlama serves canned completion responses in order and records the
// request bodies it saw.
type fakeLlama struct {
	t         *testing.T
	responses []string
	statuses  []int
	requests  []map[string]any
}

func (f *fakeLlama) handler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		f.t.Fatalf("read request: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		f.t.Fatalf("decode request: %v", err)
	}
	f.requests = append(f.requests, decoded)

	i := len(f.requests) - 1
	if i >= len(f.responses) {
		f.t.Fatalf("unexpected request %d: %s", i+1, body)
	}
	status := http.StatusOK
	if i < len(f.statuses) && f.statuses[i] != 0 {
		status = f.statuses[i]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(f.responses[i]))
}

func newChatFixture(t *testing.T, fake *fakeLlama) (*ChatService, *store.MemStore, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	db := store.NewEmptyMemStore()
	llama := NewLlamaClient(srv.URL, "test-key", "test-model")
	svc := NewChatService(llama, NewMessageService(db), "1")
	return svc, db, srv.Close
}

const directReplyBody = `{"completion_message": {"role": "assistant", "stop_reason": "stop", "content": {"type": "text", "text": "Alex is doing fine."}}}`

func toolCallBody(name, arguments string) string {
	b, _ := json.Marshal(map[string]any{
		"completion_message": map[string]any{
			"role":        "assistant",
			"stop_reason": "tool_calls",
			"tool_calls": []map[string]any{
				{"id": "call_1", "function": map[string]any{"name": name, "arguments": arguments}},
			},
		},
	})
	return string(b)
}

const finalReplyBody = `{"completion_message": {"role": "assistant", "stop_reason": "stop", "content": {"type": "text", "text": "I sent the message."}}}`

func sampleStudent() Student {
	return Student{
		ID:              "s1",
		Name:            "Alex Johnson",
		Status:          StatusOnTask,
		FocusScore:      8,
		CurrentActivity: "Taking notes on Greek history",
		Description:     "Working through the assignment.",
		Active:          true,
	}
}

func teacherTurns(text string) []ChatTurn {
	return []ChatTurn{{Role: "user", Content: text}}
}

func TestStudentChat_DirectReply(t *testing.T) {
	fake := &fakeLlama{t: t, responses: []string{directReplyBody}}
	svc, db, done := newChatFixture(t, fake)
	defer done()

	reply, err := svc.StudentChat(context.Background(), teacherTurns("How is Alex doing?"), sampleStudent())
	if err != nil {
		t.Fatalf("StudentChat: %v", err)
	}
	if reply.Content != "Alex is doing fine." {
		t.Fatalf("unexpected content: %q", reply.Content)
	}
	if reply.ToolCall != nil {
		t.Fatalf("expected nil toolCall, got %+v", reply.ToolCall)
	}
	if len(fake.requests) != 1 {
		t.Fatalf("expected a single completion round, got %d", len(fake.requests))
	}

	msg, err := db.FindMessage("s1", "1")
	if err != nil {
		t.Fatalf("FindMessage: %v", err)
	}
	if msg != nil {
		t.Fatalf("direct reply must not write messages, got %+v", msg)
	}
}

func TestStudentChat_ToolCallRoundTrip(t *testing.T) {
	fake := &fakeLlama{t: t, responses: []string{
		toolCallBody("sendMessage", `{"text": "Are you OK?"}`),
		finalReplyBody,
	}}
	svc, db, done := newChatFixture(t, fake)
	defer done()

	reply, err := svc.StudentChat(context.Background(), teacherTurns("Please check in on Alex."), sampleStudent())
	if err != nil {
		t.Fatalf("StudentChat: %v", err)
	}
	if reply.Content != "I sent the message." {
		t.Fatalf("unexpected content: %q", reply.Content)
	}
	if reply.ToolCall == nil || reply.ToolCall.Name != "sendMessage" {
		t.Fatalf("unexpected toolCall: %+v", reply.ToolCall)
	}
	if reply.ToolCall.Arguments["text"] != "Are you OK?" {
		t.Fatalf("unexpected arguments: %+v", reply.ToolCall.Arguments)
	}

	msg, err := db.FindMessage("s1", "1")
	if err != nil {
		t.Fatalf("FindMessage: %v", err)
	}
	if msg == nil {
		t.Fatalf("expected exactly one stored message")
	}
	if msg.Text != "Are you OK?" || msg.Sender != store.SenderSussiAI {
		t.Fatalf("unexpected stored message: %+v", msg)
	}

	if len(fake.requests) != 2 {
		t.Fatalf("expected two completion rounds, got %d", len(fake.requests))
	}

	// The first round carries the tool schema, the second must not.
	if _, ok := fake.requests[0]["tools"]; !ok {
		t.Fatalf("first round missing tools")
	}
	if _, ok := fake.requests[1]["tools"]; ok {
		t.Fatalf("second round must omit tools")
	}

	// The second round appends the assistant tool-call message and a tool
	// result referencing the call id.
	msgs := fake.requests[1]["messages"].([]any)
	last := msgs[len(msgs)-1].(map[string]any)
	if last["role"] != "tool" || last["tool_call_id"] != "call_1" {
		t.Fatalf("unexpected tool message: %+v", last)
	}
	if !strings.Contains(last["content"].(string), "Are you OK?") {
		t.Fatalf("tool result does not echo the sent text: %+v", last)
	}
	prev := msgs[len(msgs)-2].(map[string]any)
	if prev["stop_reason"] != "tool_calls" {
		t.Fatalf("assistant tool-call message not resent: %+v", prev)
	}
}

func TestStudentChat_OnlyFirstToolCallHonored(t *testing.T) {
	multi, _ := json.Marshal(map[string]any{
		"completion_message": map[string]any{
			"role":        "assistant",
			"stop_reason": "tool_calls",
			"tool_calls": []map[string]any{
				{"id": "call_1", "function": map[string]any{"name": "sendMessage", "arguments": `{"text": "First"}`}},
				{"id": "call_2", "function": map[string]any{"name": "sendMessage", "arguments": `{"text": "Second"}`}},
			},
		},
	})
	fake := &fakeLlama{t: t, responses: []string{string(multi), finalReplyBody}}
	svc, db, done := newChatFixture(t, fake)
	defer done()

	reply, err := svc.StudentChat(context.Background(), teacherTurns("Nudge Alex twice."), sampleStudent())
	if err != nil {
		t.Fatalf("StudentChat: %v", err)
	}
	if reply.ToolCall.Arguments["text"] != "First" {
		t.Fatalf("expected only the first call, got %+v", reply.ToolCall.Arguments)
	}

	msg, err := db.FindMessage("s1", "1")
	if err != nil {
		t.Fatalf("FindMessage: %v", err)
	}
	if msg == nil || msg.Text != "First" {
		t.Fatalf("expected only the first message written, got %+v", msg)
	}
}

func TestStudentChat_StoreFailureBecomesToolResult(t *testing.T) {
	fake := &fakeLlama{t: t, responses: []string{
		toolCallBody("sendMessage", `{"text": "Are you OK?"}`),
		finalReplyBody,
	}}
	svc, db, done := newChatFixture(t, fake)
	defer done()
	db.FailWrites(true)

	reply, err := svc.StudentChat(context.Background(), teacherTurns("Check in on Alex."), sampleStudent())
	if err != nil {
		t.Fatalf("store failure must not fail the request: %v", err)
	}
	if reply.ToolCall == nil {
		t.Fatalf("expected toolCall metadata despite store failure")
	}

	msgs := fake.requests[1]["messages"].([]any)
	last := msgs[len(msgs)-1].(map[string]any)
	if !strings.Contains(last["content"].(string), "internal error") {
		t.Fatalf("expected failure narration as tool result, got %+v", last)
	}
}

func TestStudentChat_APIErrorPassthrough(t *testing.T) {
	fake := &fakeLlama{t: t, responses: []string{`{"error": "rate limited"}`}, statuses: []int{http.StatusTooManyRequests}}
	svc, _, done := newChatFixture(t, fake)
	defer done()

	_, err := svc.StudentChat(context.Background(), teacherTurns("Hello"), sampleStudent())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Body, "rate limited") {
		t.Fatalf("upstream body not preserved: %q", apiErr.Body)
	}
}

func TestStudentChat_SecondRoundAPIErrorPassthrough(t *testing.T) {
	fake := &fakeLlama{t: t,
		responses: []string{toolCallBody("sendMessage", `{"text": "Hi"}`), `{"error": "boom"}`},
		statuses:  []int{http.StatusOK, http.StatusBadGateway},
	}
	svc, db, done := newChatFixture(t, fake)
	defer done()

	_, err := svc.StudentChat(context.Background(), teacherTurns("Hello"), sampleStudent())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", apiErr.StatusCode)
	}

	// The tool already ran before the second round failed.
	msg, err := db.FindMessage("s1", "1")
	if err != nil {
		t.Fatalf("FindMessage: %v", err)
	}
	if msg == nil || msg.Text != "Hi" {
		t.Fatalf("expected tool write before second-round failure, got %+v", msg)
	}
}

func classroomRoster() []Student {
	return []Student{
		{ID: "s1", Name: "Alex Johnson", Status: StatusOnTask, FocusScore: 8, CurrentActivity: "Taking notes on Greek history",
			History: []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7"}},
		{ID: "s2", Name: "Sarah Chen", Status: StatusNeedsHelp, FocusScore: 2, CurrentActivity: "Scrolling through TikTok"},
	}
}

func TestClassroomChat_SendsToResolvedStudent(t *testing.T) {
	fake := &fakeLlama{t: t, responses: []string{
		toolCallBody("sendMessageToStudent", `{"studentName": "Sarah Chen", "text": "Back to the assignment please."}`),
		finalReplyBody,
	}}
	svc, db, done := newChatFixture(t, fake)
	defer done()

	reply, err := svc.ClassroomChat(context.Background(), teacherTurns("Tell Sarah to refocus."), classroomRoster(), "Watch the Greek history video")
	if err != nil {
		t.Fatalf("ClassroomChat: %v", err)
	}
	if reply.ToolCall == nil || reply.ToolCall.Name != "sendMessageToStudent" {
		t.Fatalf("unexpected toolCall: %+v", reply.ToolCall)
	}

	msg, err := db.FindMessage("s2", "1")
	if err != nil {
		t.Fatalf("FindMessage: %v", err)
	}
	if msg == nil || msg.Text != "Back to the assignment please." || msg.Sender != store.SenderSussiAI {
		t.Fatalf("unexpected stored message: %+v", msg)
	}

	// The system prompt carries the assignment and a capped history summary.
	system := fake.requests[0]["messages"].([]any)[0].(map[string]any)
	content := system["content"].(string)
	if !strings.Contains(content, "Watch the Greek history video") {
		t.Fatalf("assignment missing from system prompt")
	}
	if !strings.Contains(content, `"h5", ...`) || strings.Contains(content, `"h6"`) {
		t.Fatalf("history not capped at five entries:\n%s", content)
	}
}

func TestClassroomChat_UnknownStudentName(t *testing.T) {
	fake := &fakeLlama{t: t, responses: []string{
		toolCallBody("sendMessageToStudent", `{"studentName": "Nobody Here", "text": "Hello?"}`),
		finalReplyBody,
	}}
	svc, db, done := newChatFixture(t, fake)
	defer done()

	reply, err := svc.ClassroomChat(context.Background(), teacherTurns("Message Nobody."), classroomRoster(), "Assignment")
	if err != nil {
		t.Fatalf("ClassroomChat: %v", err)
	}
	if reply.ToolCall == nil {
		t.Fatalf("expected toolCall metadata for the attempted call")
	}

	// The failure is narrated back to the model, not raised.
	msgs := fake.requests[1]["messages"].([]any)
	last := msgs[len(msgs)-1].(map[string]any)
	if !strings.Contains(last["content"].(string), "not found") {
		t.Fatalf("expected 'not found' tool result, got %+v", last)
	}

	for _, id := range []string{"s1", "s2"} {
		msg, err := db.FindMessage(id, "1")
		if err != nil {
			t.Fatalf("FindMessage: %v", err)
		}
		if msg != nil {
			t.Fatalf("unknown name must write zero messages, found %+v", msg)
		}
	}
}
