package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Anupam2570632/MicroTaskHub-server/internal/ledger"
	"github.com/Anupam2570632/MicroTaskHub-server/internal/models"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	s := NewServer(ledger.New(db, logger), logger, []string{"http://localhost:5173"}, testSecret)
	return s.Routes(), mock
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRegisterMissingFields(t *testing.T) {
	h, mock := newTestServer(t)

	tests := []map[string]string{
		{"email": "a@b.com", "role": "Worker"},
		{"fullName": "A", "role": "Worker"},
		{"fullName": "A", "email": "a@b.com"},
	}
	for _, body := range tests {
		w := doJSON(t, h, http.MethodPost, "/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterCreated(t *testing.T) {
	h, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("Wally Worker", "worker@example.com", "Worker", "", int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

	w := doJSON(t, h, http.MethodPost, "/register", map[string]string{
		"fullName": "Wally Worker",
		"email":    "worker@example.com",
		"role":     "Worker",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(10), resp.User.Coins)
	assert.Equal(t, "worker@example.com", resp.User.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateConflict(t *testing.T) {
	h, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	w := doJSON(t, h, http.MethodPost, "/register", map[string]string{
		"fullName": "Wally Worker",
		"email":    "worker@example.com",
		"role":     "Worker",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserAbsentReturnsNull(t *testing.T) {
	h, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "full_name", "email", "role", "profile_image", "coins", "created_at",
		}))

	w := doJSON(t, h, http.MethodGet, "/user?email=ghost@example.com", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null\n", w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserRequiresEmail(t *testing.T) {
	h, _ := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/user", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskResponse(t *testing.T) {
	h, mock := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT coins FROM users WHERE email = $1 FOR UPDATE`)).
		WithArgs("buyer@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(20))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET coins = coins - $1`)).
		WithArgs(int64(10), "buyer@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO tasks`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, time.Now()))
	mock.ExpectCommit()

	w := doJSON(t, h, http.MethodPost, "/createTasks", map[string]any{
		"creator_email":  "buyer@example.com",
		"task_title":     "Watch my video",
		"task_quantity":  2,
		"payable_amount": 5,
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success        bool  `json:"success"`
		TaskID         int64 `json:"taskId"`
		RemainingCoins int64 `json:"remainingCoins"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.TaskID)
	assert.Equal(t, int64(10), resp.RemainingCoins)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTaskInsufficientCoins(t *testing.T) {
	h, mock := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT coins FROM users WHERE email = $1 FOR UPDATE`)).
		WithArgs("buyer@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(3))
	mock.ExpectRollback()

	w := doJSON(t, h, http.MethodPost, "/createTasks", map[string]any{
		"creator_email":  "buyer@example.com",
		"task_title":     "Watch my video",
		"task_quantity":  2,
		"payable_amount": 5,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTaskUnknownUser(t *testing.T) {
	h, mock := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT coins FROM users WHERE email = $1 FOR UPDATE`)).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"coins"}))
	mock.ExpectRollback()

	w := doJSON(t, h, http.MethodPost, "/createTasks", map[string]any{
		"creator_email":  "ghost@example.com",
		"task_title":     "Watch my video",
		"task_quantity":  1,
		"payable_amount": 1,
	}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTaskMalformedID(t *testing.T) {
	h, _ := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/tasks/not-a-number", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSubmissionStatusValidation(t *testing.T) {
	h, _ := newTestServer(t)

	w := doJSON(t, h, http.MethodPatch, "/update-submission-status/3",
		map[string]string{"status": "maybe"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSubmissionStatusAlreadyReviewed(t *testing.T) {
	h, mock := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM submissions WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"task_id", "task_title", "worker_email", "worker_name", "creator_email",
			"payable_amount", "submission_details", "status", "submitted_at",
		}).AddRow(7, "T", "worker@example.com", "W", "buyer@example.com",
			5, "", models.SubmissionApproved, time.Now()))
	mock.ExpectRollback()

	w := doJSON(t, h, http.MethodPatch, "/update-submission-status/3",
		map[string]string{"status": "approved"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawCashLimit(t *testing.T) {
	h, mock := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT coins FROM users WHERE email = $1 FOR UPDATE`)).
		WithArgs("worker@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(15))
	mock.ExpectRollback()

	w := doJSON(t, h, http.MethodPost, "/withdraw", map[string]any{
		"worker_email":      "worker@example.com",
		"withdrawal_coin":   15,
		"withdrawal_amount": 1,
		"payment_system":    "bkash",
		"account_number":    "01700000000",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawForOtherAccountForbidden(t *testing.T) {
	h, mock := newTestServer(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := doJSON(t, h, http.MethodPost, "/withdraw", map[string]any{
		"worker_email":      "bob@example.com",
		"withdrawal_coin":   20,
		"withdrawal_amount": 1,
		"payment_system":    "bkash",
		"account_number":    "01700000000",
	}, map[string]string{"Authorization": "Bearer " + signed})

	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/register", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
