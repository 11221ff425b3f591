package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Anupam2570632/MicroTaskHub-server/internal/ledger"
	"github.com/Anupam2570632/MicroTaskHub-server/internal/middleware"
	"github.com/Anupam2570632/MicroTaskHub-server/internal/models"
)

type Server struct {
	ledger      *ledger.Ledger
	logger      *zap.Logger
	corsOrigins []string
	jwtSecret   string
}

func NewServer(l *ledger.Ledger, logger *zap.Logger, corsOrigins []string, jwtSecret string) *Server {
	return &Server{
		ledger:      l,
		logger:      logger,
		corsOrigins: corsOrigins,
		jwtSecret:   jwtSecret,
	}
}

// RegisterRequest represents the request body for creating a user
type RegisterRequest struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	ProfileImage string `json:"profileImage"`
}

type CreateTaskRequest struct {
	CreatorEmail   string `json:"creator_email"`
	TaskTitle      string `json:"task_title"`
	TaskDetail     string `json:"task_detail"`
	TaskImageURL   string `json:"task_image_url"`
	SubmissionInfo string `json:"submission_info"`
	CompletionDate string `json:"completion_date"`
	TaskQuantity   int64  `json:"task_quantity"`
	PayableAmount  int64  `json:"payable_amount"`
}

type CreateSubmissionRequest struct {
	TaskID            int64  `json:"task_id"`
	WorkerEmail       string `json:"worker_email"`
	WorkerName        string `json:"worker_name"`
	SubmissionDetails string `json:"submission_details"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type WithdrawRequest struct {
	WorkerEmail      string `json:"worker_email"`
	WorkerName       string `json:"worker_name"`
	WithdrawalCoin   int64  `json:"withdrawal_coin"`
	WithdrawalAmount int64  `json:"withdrawal_amount"`
	PaymentSystem    string `json:"payment_system"`
	AccountNumber    string `json:"account_number"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// serverError logs the full failure and hides the detail from the client.
func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Server error")
}

// forbiddenForOther rejects a request whose verified identity does not
// match the account it is trying to act on. Anonymous requests pass; the
// auth middleware is the external collaborator that decides whether
// anonymous access is allowed at all.
func forbiddenForOther(w http.ResponseWriter, r *http.Request, email string) bool {
	verified := middleware.EmailFromContext(r.Context())
	if verified != "" && verified != email {
		writeError(w, http.StatusForbidden, "Not allowed for this account")
		return true
	}
	return false
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FullName == "" || req.Email == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := s.ledger.Register(r.Context(), req.FullName, req.Email, req.Role, req.ProfileImage)
	if err != nil {
		if errors.Is(err, ledger.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "Email already exists")
			return
		}
		s.serverError(w, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully!",
		"user":    user,
	})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := s.ledger.GetUserByEmail(r.Context(), email)
	if err != nil {
		s.serverError(w, "get user", err)
		return
	}

	// Absent user is a JSON null, not a 404; the front-end probes this
	// endpoint to decide whether to show the registration flow.
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CreatorEmail == "" || req.TaskTitle == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if forbiddenForOther(w, r, req.CreatorEmail) {
		return
	}

	task := &models.Task{
		CreatorEmail:   req.CreatorEmail,
		TaskTitle:      req.TaskTitle,
		TaskDetail:     req.TaskDetail,
		TaskImageURL:   req.TaskImageURL,
		SubmissionInfo: req.SubmissionInfo,
		CompletionDate: req.CompletionDate,
		TaskQuantity:   req.TaskQuantity,
		PayableAmount:  req.PayableAmount,
	}

	remaining, err := s.ledger.CreateTask(r.Context(), task)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, ledger.ErrInsufficientCoins):
			writeError(w, http.StatusBadRequest, "Insufficient coins")
		case errors.Is(err, ledger.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, "Quantity and amount must be positive")
		default:
			s.serverError(w, "create task", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"taskId":         task.ID,
		"remainingCoins": remaining,
	})
}

func (s *Server) getTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.ledger.ListTasks(r.Context())
	if err != nil {
		s.serverError(w, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid Task ID")
		return
	}

	task, err := s.ledger.GetTask(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "Task Not Found")
			return
		}
		s.serverError(w, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TaskID == 0 || req.WorkerEmail == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if forbiddenForOther(w, r, req.WorkerEmail) {
		return
	}

	sub := &models.Submission{
		TaskID:            req.TaskID,
		WorkerEmail:       req.WorkerEmail,
		WorkerName:        req.WorkerName,
		SubmissionDetails: req.SubmissionDetails,
	}

	if err := s.ledger.CreateSubmission(r.Context(), sub); err != nil {
		if errors.Is(err, ledger.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "Task Not Found")
			return
		}
		s.serverError(w, "create submission", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"message":    "Submission saved successfully",
		"insertedId": sub.ID,
	})
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	subs, err := s.ledger.ListSubmissionsByWorker(r.Context(), email)
	if err != nil {
		s.serverError(w, "list submissions", err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) reviewRequests(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	subs, err := s.ledger.ListPendingForCreator(r.Context(), email)
	if err != nil {
		s.serverError(w, "list review requests", err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) updateSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid Submission ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != models.SubmissionApproved && req.Status != models.SubmissionRejected {
		writeError(w, http.StatusBadRequest, "Status must be 'approved' or 'rejected'")
		return
	}

	sub, err := s.ledger.ReviewSubmission(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrSubmissionNotFound):
			writeError(w, http.StatusNotFound, "Submission not found")
		case errors.Is(err, ledger.ErrAlreadyReviewed):
			writeError(w, http.StatusBadRequest, "Submission already reviewed")
		default:
			s.serverError(w, "update submission status", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Submission " + sub.Status,
		"submission": sub,
	})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.WorkerEmail == "" || req.PaymentSystem == "" || req.AccountNumber == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if forbiddenForOther(w, r, req.WorkerEmail) {
		return
	}

	withdrawal := &models.Withdrawal{
		WorkerEmail:      req.WorkerEmail,
		WorkerName:       req.WorkerName,
		WithdrawalCoin:   req.WithdrawalCoin,
		WithdrawalAmount: req.WithdrawalAmount,
		PaymentSystem:    req.PaymentSystem,
		AccountNumber:    req.AccountNumber,
	}

	if err := s.ledger.RequestWithdrawal(r.Context(), withdrawal); err != nil {
		switch {
		case errors.Is(err, ledger.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, ledger.ErrLimitExceeded):
			writeError(w, http.StatusBadRequest, "Withdrawal exceeds allowed limit")
		case errors.Is(err, ledger.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, "Amounts must be positive")
		default:
			s.serverError(w, "withdraw", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Withdrawal request submitted",
		"withdrawal": withdrawal,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
