package models

import "time"

const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

type Submission struct {
	ID                int64     `json:"id"`
	TaskID            int64     `json:"task_id"`
	TaskTitle         string    `json:"task_title"`
	WorkerEmail       string    `json:"worker_email"`
	WorkerName        string    `json:"worker_name"`
	CreatorEmail      string    `json:"creator_email"`
	PayableAmount     int64     `json:"payable_amount"`
	SubmissionDetails string    `json:"submission_details"`
	Status            string    `json:"status"`
	SubmittedAt       time.Time `json:"submittedAt"`
}
