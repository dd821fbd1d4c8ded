package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"sussi.app/classroom-monitor/internal/core"
)

type APIHandler struct {
	rosterService     *core.RosterService
	messageService    *core.MessageService
	assignmentService *core.AssignmentService
	chatService       *core.ChatService
	automations       *core.AutomationRegistry
	classroomID       string
}

func NewAPIHandler(roster *core.RosterService, messages *core.MessageService, assignments *core.AssignmentService, chat *core.ChatService, automations *core.AutomationRegistry, classroomID string) *APIHandler {
	return &APIHandler{
		rosterService:     roster,
		messageService:    messages,
		assignmentService: assignments,
		chatService:       chat,
		automations:       automations,
		classroomID:       classroomID,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Students

func (h *APIHandler) ListStudentsHandler(w http.ResponseWriter, r *http.Request) {
	classroomID := r.URL.Query().Get("classroomId")
	if classroomID == "" {
		writeError(w, http.StatusBadRequest, "classroomId is required")
		return
	}

	students, err := h.rosterService.ListStudents(classroomID)
	if err != nil {
		log.Printf("Error listing students for classroom %s: %v", classroomID, err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch students")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *APIHandler) GetStudentHandler(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "studentId is required")
		return
	}

	student, err := h.rosterService.GetStudent(studentID)
	if err != nil {
		log.Printf("Error fetching student %s: %v", studentID, err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch student")
		return
	}
	if student == nil {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// Messages

type SendMessageRequest struct {
	StudentID   string `json:"studentId"`
	ClassroomID string `json:"classroomId"`
	Text        string `json:"text"`
	Sender      string `json:"sender"`
}

func (h *APIHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.StudentID == "" || req.Text == "" || req.Sender == "" || req.ClassroomID == "" {
		writeError(w, http.StatusBadRequest, "Missing required message fields")
		return
	}

	result, err := h.messageService.Send(req.StudentID, req.ClassroomID, req.Text, req.Sender)
	if err != nil {
		if errors.Is(err, core.ErrInvalidSender) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error sending message to student %s: %v", req.StudentID, err)
		writeError(w, http.StatusInternalServerError, "Unable to send message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

// Assignments

type UpdateAssignmentRequest struct {
	Description string `json:"description"`
}

func (h *APIHandler) UpdateAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Description is required"})
		return
	}

	rec, created, err := h.assignmentService.Update(h.classroomID, req.Description)
	if err != nil {
		log.Printf("Error upserting assignment for classroom %s: %v", h.classroomID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal Server Error"})
		return
	}

	message := "Activity updated successfully"
	var upsertedID any
	if created {
		message = "Activity created successfully"
		upsertedID = rec.Classroom
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": message, "upsertedId": upsertedID})
}

func (h *APIHandler) GetAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := h.assignmentService.Current(h.classroomID)
	if err != nil {
		log.Printf("Error fetching assignment for classroom %s: %v", h.classroomID, err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch assignment")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "No assignment set")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Chat

type ChatRequest struct {
	Messages []core.ChatTurn `json:"messages"`
	Student  *core.Student   `json:"student"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 || req.Student == nil {
		writeError(w, http.StatusBadRequest, "Messages and student data are required")
		return
	}

	reply, err := h.chatService.StudentChat(r.Context(), req.Messages, *req.Student)
	if err != nil {
		h.writeChatError(w, err, "Unable to process chat")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type ClassroomChatRequest struct {
	Messages           []core.ChatTurn `json:"messages"`
	Students           []core.Student  `json:"students"`
	CurrentInstruction string          `json:"currentInstruction"`
}

func (h *APIHandler) ClassroomChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ClassroomChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 || req.Students == nil {
		writeError(w, http.StatusBadRequest, "Messages and students data are required")
		return
	}

	reply, err := h.chatService.ClassroomChat(r.Context(), req.Messages, req.Students, req.CurrentInstruction)
	if err != nil {
		h.writeChatError(w, err, "Unable to process classroom chat")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// writeChatError passes upstream LLM failures through with their status code
// and body; everything else becomes a generic 500.
func (h *APIHandler) writeChatError(w http.ResponseWriter, err error, generic string) {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		log.Printf("LLM API error: %s: %s", apiErr.Status, apiErr.Body)
		writeJSON(w, apiErr.StatusCode, map[string]string{
			"error":   "LLM API error: " + apiErr.Status,
			"details": apiErr.Body,
		})
		return
	}
	log.Printf("Chat error: %v", err)
	writeError(w, http.StatusInternalServerError, generic)
}

// Roster (live students merged with locally simulated ones)

func (h *APIHandler) RosterHandler(w http.ResponseWriter, r *http.Request) {
	students, err := h.rosterService.Roster()
	if err != nil {
		log.Printf("Error building roster: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch roster")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

type AddMockStudentRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *APIHandler) AddMockStudentHandler(w http.ResponseWriter, r *http.Request) {
	var req AddMockStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Student id and name are required")
		return
	}

	student, err := h.rosterService.AddMockStudent(req.ID, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrStudentAlreadyAdded) {
			writeError(w, http.StatusConflict, "Student already added to the dashboard")
			return
		}
		log.Printf("Error adding mock student %s: %v", req.ID, err)
		writeError(w, http.StatusInternalServerError, "Unable to add student")
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *APIHandler) RemoveMockStudentHandler(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	if err := h.rosterService.RemoveMockStudent(studentID); err != nil {
		if errors.Is(err, core.ErrStudentNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		log.Printf("Error removing mock student %s: %v", studentID, err)
		writeError(w, http.StatusInternalServerError, "Unable to remove student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Automations

func (h *APIHandler) ListAutomationsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.automations.List())
}

func (h *APIHandler) AddAutomationHandler(w http.ResponseWriter, r *http.Request) {
	var rule core.AutomationRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.automations.Add(rule)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) UpdateAutomationHandler(w http.ResponseWriter, r *http.Request) {
	var rule core.AutomationRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	rule.ID = chi.URLParam(r, "id")

	updated, err := h.automations.Update(rule)
	if err != nil {
		if errors.Is(err, core.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "Automation rule not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *APIHandler) DeleteAutomationHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.automations.Delete(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, core.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "Automation rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Unable to delete automation rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
