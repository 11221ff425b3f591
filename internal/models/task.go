package models

import "time"

const TaskStatusActive = "active"

type Task struct {
	ID             int64     `json:"id"`
	CreatorEmail   string    `json:"creator_email"`
	TaskTitle      string    `json:"task_title"`
	TaskDetail     string    `json:"task_detail"`
	TaskImageURL   string    `json:"task_image_url"`
	SubmissionInfo string    `json:"submission_info"`
	CompletionDate string    `json:"completion_date"`
	TaskQuantity   int64     `json:"task_quantity"`
	PayableAmount  int64     `json:"payable_amount"`
	TotalCost      int64     `json:"total_cost"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}
