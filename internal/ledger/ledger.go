// Package ledger implements the coin accounting rules of the marketplace.
//
// Every balance-affecting operation runs inside a single database
// transaction that locks the affected user row before deciding anything,
// so two concurrent debits can never both read the same stale balance.
// A failure at any step aborts the whole transaction: there is no state
// in which coins moved without the matching task, submission update, or
// withdrawal record being committed alongside.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Anupam2570632/MicroTaskHub-server/internal/models"
)

// uniqueViolation is the Postgres error code for a unique-index conflict.
const uniqueViolation = "23505"

type Ledger struct {
	db     *sql.DB
	logger *zap.Logger
}

func New(db *sql.DB, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// Register creates a user if and only if the email is not taken. The
// starting balance depends on the role: 10 coins for a Worker, 20 for a
// Buyer. Duplicate emails are rejected by the unique index on users.email,
// not by an application-level pre-check, so a race between two concurrent
// registrations resolves to exactly one inserted row.
func (l *Ledger) Register(ctx context.Context, fullName, email, role, profileImage string) (*models.User, error) {
	user := &models.User{
		FullName:     fullName,
		Email:        email,
		Role:         role,
		ProfileImage: profileImage,
		Coins:        models.StartingCoins(role),
	}

	err := l.db.QueryRowContext(ctx,
		`INSERT INTO users (full_name, email, role, profile_image, coins)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		user.FullName, user.Email, user.Role, user.ProfileImage, user.Coins,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// CreateTask funds and inserts a task in one transaction: the creator's
// row is locked, the balance checked against quantity*payable_amount, the
// debit applied, and the task inserted. Either all of that commits or none
// of it does. The returned balance comes from the debit's RETURNING clause,
// never from the pre-transaction snapshot.
func (l *Ledger) CreateTask(ctx context.Context, task *models.Task) (remaining int64, err error) {
	if task.TaskQuantity <= 0 || task.PayableAmount <= 0 {
		return 0, ErrInvalidAmount
	}
	task.TotalCost = task.TaskQuantity * task.PayableAmount

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var coins int64
	err = tx.QueryRowContext(ctx,
		`SELECT coins FROM users WHERE email = $1 FOR UPDATE`,
		task.CreatorEmail,
	).Scan(&coins)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock creator: %w", err)
	}

	if coins < task.TotalCost {
		return 0, ErrInsufficientCoins
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE users SET coins = coins - $1 WHERE email = $2 RETURNING coins`,
		task.TotalCost, task.CreatorEmail,
	).Scan(&remaining)
	if err != nil {
		return 0, fmt.Errorf("debit creator: %w", err)
	}

	task.Status = models.TaskStatusActive
	err = tx.QueryRowContext(ctx,
		`INSERT INTO tasks (creator_email, task_title, task_detail, task_image_url,
		                    submission_info, completion_date, task_quantity,
		                    payable_amount, total_cost, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		task.CreatorEmail, task.TaskTitle, task.TaskDetail, task.TaskImageURL,
		task.SubmissionInfo, task.CompletionDate, task.TaskQuantity,
		task.PayableAmount, task.TotalCost, task.Status,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	l.logger.Info("task created",
		zap.Int64("task_id", task.ID),
		zap.String("creator", task.CreatorEmail),
		zap.Int64("total_cost", task.TotalCost),
		zap.Int64("remaining_coins", remaining))
	return remaining, nil
}

// ReviewSubmission moves a pending submission to approved or rejected.
// The transition is one-shot: the submission row is locked, and anything
// other than "pending" aborts with ErrAlreadyReviewed. Approval credits
// the worker's balance by the submission's recorded payable amount inside
// the same transaction as the status update, so the credit is applied
// exactly once or not at all.
func (l *Ledger) ReviewSubmission(ctx context.Context, submissionID int64, status string) (*models.Submission, error) {
	if status != models.SubmissionApproved && status != models.SubmissionRejected {
		return nil, fmt.Errorf("invalid target status %q", status)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sub := &models.Submission{ID: submissionID}
	err = tx.QueryRowContext(ctx,
		`SELECT task_id, task_title, worker_email, worker_name, creator_email,
		        payable_amount, submission_details, status, submitted_at
		 FROM submissions WHERE id = $1 FOR UPDATE`,
		submissionID,
	).Scan(&sub.TaskID, &sub.TaskTitle, &sub.WorkerEmail, &sub.WorkerName,
		&sub.CreatorEmail, &sub.PayableAmount, &sub.SubmissionDetails,
		&sub.Status, &sub.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock submission: %w", err)
	}

	if sub.Status != models.SubmissionPending {
		return nil, ErrAlreadyReviewed
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE submissions SET status = $1 WHERE id = $2`,
		status, submissionID,
	); err != nil {
		return nil, fmt.Errorf("update submission status: %w", err)
	}

	if status == models.SubmissionApproved {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET coins = coins + $1 WHERE email = $2`,
			sub.PayableAmount, sub.WorkerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("credit worker: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, fmt.Errorf("credit worker: no user row for %s", sub.WorkerEmail)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	sub.Status = status
	l.logger.Info("submission reviewed",
		zap.Int64("submission_id", submissionID),
		zap.String("status", status),
		zap.String("worker", sub.WorkerEmail),
		zap.Int64("payable_amount", sub.PayableAmount))
	return sub, nil
}

// RequestWithdrawal converts coins to a cash payout request. Two limits
// apply against the locked balance: the coin amount must be affordable,
// and the cash amount must not exceed balance/20 rounded down. Either
// check failing rejects the request with no mutation. On success the debit
// and the withdrawal record commit together.
func (l *Ledger) RequestWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	if w.WithdrawalCoin <= 0 || w.WithdrawalAmount <= 0 {
		return ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var coins int64
	err = tx.QueryRowContext(ctx,
		`SELECT coins FROM users WHERE email = $1 FOR UPDATE`,
		w.WorkerEmail,
	).Scan(&coins)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lock worker: %w", err)
	}

	maxCash := coins / models.CoinsPerUnit
	if w.WithdrawalCoin > coins || w.WithdrawalAmount > maxCash {
		return ErrLimitExceeded
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET coins = coins - $1 WHERE email = $2`,
		w.WithdrawalCoin, w.WorkerEmail,
	); err != nil {
		return fmt.Errorf("debit worker: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO withdrawals (worker_email, worker_name, withdrawal_coin,
		                          withdrawal_amount, payment_system, account_number)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, withdraw_date`,
		w.WorkerEmail, w.WorkerName, w.WithdrawalCoin, w.WithdrawalAmount,
		w.PaymentSystem, w.AccountNumber,
	).Scan(&w.ID, &w.WithdrawDate)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	l.logger.Info("withdrawal recorded",
		zap.Int64("withdrawal_id", w.ID),
		zap.String("worker", w.WorkerEmail),
		zap.Int64("coins", w.WithdrawalCoin),
		zap.Int64("cash", w.WithdrawalAmount))
	return nil
}
