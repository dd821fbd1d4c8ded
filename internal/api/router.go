package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Student routes
		r.Get("/students", apiHandler.ListStudentsHandler)
		r.Get("/students/{id}", apiHandler.GetStudentHandler)

		// Message and assignment routes
		r.Post("/messages", apiHandler.SendMessageHandler)
		r.Post("/assignments", apiHandler.UpdateAssignmentHandler)
		r.Get("/assignments", apiHandler.GetAssignmentHandler)

		// Chat routes
		r.Post("/chat", apiHandler.ChatHandler)
		r.Post("/classroom-chat", apiHandler.ClassroomChatHandler)

		// Merged roster (live students plus locally simulated ones)
		r.Get("/roster", apiHandler.RosterHandler)
		r.Post("/roster/students", apiHandler.AddMockStudentHandler)
		r.Delete("/roster/students/{id}", apiHandler.RemoveMockStudentHandler)

		// Automation rule routes
		r.Get("/automations", apiHandler.ListAutomationsHandler)
		r.Post("/automations", apiHandler.AddAutomationHandler)
		r.Put("/automations/{id}", apiHandler.UpdateAutomationHandler)
		r.Delete("/automations/{id}", apiHandler.DeleteAutomationHandler)
	})

	return r
}
