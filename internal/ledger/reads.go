package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Anupam2570632/MicroTaskHub-server/internal/models"
)

// GetUserByEmail returns nil with no error when the user does not exist;
// the /user endpoint reports absence as a JSON null rather than a 404.
func (l *Ledger) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := l.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, role, profile_image, coins, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.FullName, &user.Email, &user.Role,
		&user.ProfileImage, &user.Coins, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (l *Ledger) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, creator_email, task_title, task_detail, task_image_url,
		        submission_info, completion_date, task_quantity, payable_amount,
		        total_cost, status, created_at
		 FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.CreatorEmail, &t.TaskTitle, &t.TaskDetail,
			&t.TaskImageURL, &t.SubmissionInfo, &t.CompletionDate, &t.TaskQuantity,
			&t.PayableAmount, &t.TotalCost, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (l *Ledger) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t := &models.Task{}
	err := l.db.QueryRowContext(ctx,
		`SELECT id, creator_email, task_title, task_detail, task_image_url,
		        submission_info, completion_date, task_quantity, payable_amount,
		        total_cost, status, created_at
		 FROM tasks WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.CreatorEmail, &t.TaskTitle, &t.TaskDetail, &t.TaskImageURL,
		&t.SubmissionInfo, &t.CompletionDate, &t.TaskQuantity, &t.PayableAmount,
		&t.TotalCost, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select task: %w", err)
	}
	return t, nil
}

// CreateSubmission records a worker's claim of completed work. The payable
// amount and creator email are copied from the task row, not trusted from
// the request, so later approval credits exactly what the task advertised.
func (l *Ledger) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	err := l.db.QueryRowContext(ctx,
		`SELECT task_title, creator_email, payable_amount FROM tasks WHERE id = $1`,
		sub.TaskID,
	).Scan(&sub.TaskTitle, &sub.CreatorEmail, &sub.PayableAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("select task for submission: %w", err)
	}

	sub.Status = models.SubmissionPending
	err = l.db.QueryRowContext(ctx,
		`INSERT INTO submissions (task_id, task_title, worker_email, worker_name,
		                          creator_email, payable_amount, submission_details, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, submitted_at`,
		sub.TaskID, sub.TaskTitle, sub.WorkerEmail, sub.WorkerName,
		sub.CreatorEmail, sub.PayableAmount, sub.SubmissionDetails, sub.Status,
	).Scan(&sub.ID, &sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListSubmissionsByWorker returns the worker's submissions, newest first.
func (l *Ledger) ListSubmissionsByWorker(ctx context.Context, email string) ([]models.Submission, error) {
	return l.listSubmissions(ctx,
		`SELECT id, task_id, task_title, worker_email, worker_name, creator_email,
		        payable_amount, submission_details, status, submitted_at
		 FROM submissions WHERE worker_email = $1
		 ORDER BY submitted_at DESC`,
		email)
}

// ListPendingForCreator returns submissions awaiting the creator's review.
func (l *Ledger) ListPendingForCreator(ctx context.Context, email string) ([]models.Submission, error) {
	return l.listSubmissions(ctx,
		`SELECT id, task_id, task_title, worker_email, worker_name, creator_email,
		        payable_amount, submission_details, status, submitted_at
		 FROM submissions WHERE creator_email = $1 AND status = 'pending'
		 ORDER BY submitted_at DESC`,
		email)
}

func (l *Ledger) listSubmissions(ctx context.Context, query, email string) ([]models.Submission, error) {
	rows, err := l.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("select submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.TaskID, &s.TaskTitle, &s.WorkerEmail,
			&s.WorkerName, &s.CreatorEmail, &s.PayableAmount,
			&s.SubmissionDetails, &s.Status, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
