package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Anupam2570632/MicroTaskHub-server/internal/middleware"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(s.corsOrigins))
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Identity(s.jwtSecret))

	r.Get("/health", s.health)

	r.Post("/register", s.register)
	r.Get("/user", s.getUser)

	r.Post("/createTasks", s.createTask)
	r.Get("/getTasks", s.getTasks)
	r.Get("/tasks/{id}", s.getTask)

	r.Post("/submissions", s.createSubmission)
	r.Get("/submissions", s.listSubmissions)
	r.Get("/review-requests", s.reviewRequests)
	r.Patch("/update-submission-status/{id}", s.updateSubmissionStatus)

	r.Post("/withdraw", s.withdraw)

	return r
}
