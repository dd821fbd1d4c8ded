package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"sussi.app/classroom-monitor/internal/store"
)

// ChatService drives the two-round tool-call protocol shared by the
// single-student and whole-classroom chats: first completion with the tool
// schema, then, if the model asked for a tool, execute it and feed the result
// back for a final natural-language reply. The two flows differ only in
// system prompt and tool.
type ChatService struct {
	llama       *LlamaClient
	messages    *MessageService
	classroomID string
}

func NewChatService(llama *LlamaClient, messages *MessageService, classroomID string) *ChatService {
	return &ChatService{
		llama:       llama,
		messages:    messages,
		classroomID: classroomID,
	}
}

// ChatReply is the handler-facing outcome of one chat submission.
type ChatReply struct {
	Role     string           `json:"role"`
	Content  string           `json:"content"`
	ToolCall *ToolCallSummary `json:"toolCall"`
}

type ToolCallSummary struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// StudentChat answers a teacher's question about one student. The model may
// call sendMessage(text) to deliver a message to that student.
func (s *ChatService) StudentChat(ctx context.Context, turns []ChatTurn, student Student) (*ChatReply, error) {
	tools := []Tool{{
		Type: "function",
		Function: ToolFunction{
			Name:        "sendMessage",
			Description: "Sends a helpful message to the student. This message will be recorded in the system.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "The content of the message to send to the student.",
					},
				},
				"required": []string{"text"},
			},
		},
	}}

	systemContent := fmt.Sprintf(`You are a helpful assistant for a teacher. You are discussing a student named %s.
Here is the student's current data:
- Status: %s
- Focus Score: %g
- Current Activity: %s
- Detailed Description: %s
- Active: %t

Keep your responses concise and helpful for a teacher monitoring their classroom. You have the ability to send messages to the student.`,
		student.Name, student.Status, student.FocusScore, student.CurrentActivity, student.Description, student.Active)

	execute := func(name string, args map[string]any) string {
		if name != "sendMessage" {
			return fmt.Sprintf("Unknown tool %q.", name)
		}
		text, _ := args["text"].(string)
		if _, err := s.messages.Send(student.ID, s.classroomID, text, store.SenderSussiAI); err != nil {
			log.Printf("Failed to execute sendMessage tool for student %s: %v", student.ID, err)
			return "Failed to send the message due to an internal error."
		}
		return fmt.Sprintf("Successfully sent message: %q", text)
	}

	return s.runToolConversation(ctx, systemContent, turns, tools, execute)
}

// ClassroomChat answers a teacher's question about the whole class. The model
// may call sendMessageToStudent(studentName, text); the name is resolved
// against the roster it was given.
func (s *ChatService) ClassroomChat(ctx context.Context, turns []ChatTurn, students []Student, currentInstruction string) (*ChatReply, error) {
	nameToID := make(map[string]string, len(students))
	names := make([]string, 0, len(students))
	for _, st := range students {
		if _, ok := nameToID[st.Name]; !ok {
			names = append(names, st.Name)
		}
		nameToID[st.Name] = st.ID
	}

	tools := []Tool{{
		Type: "function",
		Function: ToolFunction{
			Name:        "sendMessageToStudent",
			Description: "Sends a helpful message to a specific student. This message will be recorded in the system.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"studentName": map[string]any{
						"type":        "string",
						"description": "The full name of the student to send the message to.",
						"enum":        names,
					},
					"text": map[string]any{
						"type":        "string",
						"description": "The content of the message to send to the student.",
					},
				},
				"required": []string{"studentName", "text"},
			},
		},
	}}

	var studentContext strings.Builder
	for i, st := range students {
		if i > 0 {
			studentContext.WriteString("\n")
		}
		focus := "N/A"
		if st.FocusScore != 0 {
			focus = fmt.Sprintf("%g", st.FocusScore)
		}
		fmt.Fprintf(&studentContext, "- %s: Status is %s, Focus Score is %s. Current activity: %s%s",
			st.Name, st.Status, focus, st.CurrentActivity, historySummary(st.History))
	}

	systemContent := fmt.Sprintf(`You are a helpful assistant for a teacher monitoring their classroom. Speak in natural languages and only call tools if specifically asked to.
The current assignment for the class is: %q.
Here is a summary of all the students in the class:
%s

Answer the teacher's questions based on this data. You can send messages to students if needed.`,
		currentInstruction, studentContext.String())

	execute := func(name string, args map[string]any) string {
		if name != "sendMessageToStudent" {
			return fmt.Sprintf("Unknown tool %q.", name)
		}
		studentName, _ := args["studentName"].(string)
		text, _ := args["text"].(string)

		studentID, ok := nameToID[studentName]
		if !ok {
			return fmt.Sprintf("Could not send message: Student %q not found.", studentName)
		}
		if _, err := s.messages.Send(studentID, s.classroomID, text, store.SenderSussiAI); err != nil {
			log.Printf("Failed to execute sendMessageToStudent tool for %s: %v", studentName, err)
			return fmt.Sprintf("Failed to send message to %s due to an internal error.", studentName)
		}
		return fmt.Sprintf("Successfully sent message to %s.", studentName)
	}

	return s.runToolConversation(ctx, systemContent, turns, tools, execute)
}

// historySummary renders the first few history entries for the system prompt.
func historySummary(history []string) string {
	if len(history) == 0 {
		return ""
	}
	quoted := make([]string, 0, 5)
	for i, h := range history {
		if i == 5 {
			break
		}
		quoted = append(quoted, fmt.Sprintf("%q", h))
	}
	suffix := ""
	if len(history) > 5 {
		suffix = ", ..."
	}
	return fmt.Sprintf("\n    Activity History: [%s%s]", strings.Join(quoted, ", "), suffix)
}

// runToolConversation is the shared two-round protocol. executeTool downgrades
// its own failures to a descriptive result string, so tool errors are narrated
// back through the model instead of failing the request. At most one message
// store write happens per invocation.
func (s *ChatService) runToolConversation(ctx context.Context, systemContent string, turns []ChatTurn, tools []Tool, executeTool func(name string, args map[string]any) string) (*ChatReply, error) {
	messages := make([]any, 0, len(turns)+3)
	messages = append(messages, ChatTurn{Role: "system", Content: systemContent})
	for _, turn := range turns {
		messages = append(messages, turn)
	}

	first, err := s.llama.CreateCompletion(ctx, messages, tools)
	if err != nil {
		return nil, err
	}

	if first.StopReason != stopReasonToolCalls || len(first.ToolCalls) == 0 {
		return &ChatReply{Role: first.Role, Content: first.Text(), ToolCall: nil}, nil
	}

	// Only the first tool call is honored; extras are dropped.
	toolCall := first.ToolCalls[0]
	if len(first.ToolCalls) > 1 {
		log.Printf("Completion carried %d tool calls; executing only %q", len(first.ToolCalls), toolCall.Function.Name)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
		return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	toolResult := executeTool(toolCall.Function.Name, args)

	// Resend the history plus the assistant's tool-call message and the tool
	// result, without the tool schema, to force a textual answer.
	messages = append(messages, first, toolResultMessage{
		Role:       "tool",
		ToolCallID: toolCall.ID,
		Content:    toolResult,
	})

	second, err := s.llama.CreateCompletion(ctx, messages, nil)
	if err != nil {
		return nil, err
	}

	return &ChatReply{
		Role:    second.Role,
		Content: second.Text(),
		ToolCall: &ToolCallSummary{
			Name:      toolCall.Function.Name,
			Arguments: args,
		},
	}, nil
}
