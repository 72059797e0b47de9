package domain

import "time"

// Case statuses.
const (
	CaseStatusPending    = "pending"
	CaseStatusInProgress = "in_progress"
	CaseStatusResolved   = "resolved"
	CaseStatusClosed     = "closed"
)

// Case is a filed victim case.
type Case struct {
	CaseID        string    `json:"id" dynamodbav:"case_id"`
	UserID        string    `json:"user_id" dynamodbav:"user_id"`
	VictimName    string    `json:"victim_name" dynamodbav:"victim_name"`
	MobileNumber  string    `json:"mobile_number" dynamodbav:"mobile_number"`
	Address       string    `json:"address" dynamodbav:"address"`
	Category      string    `json:"category" dynamodbav:"category"`
	Subcategories []string  `json:"subcategories" dynamodbav:"subcategories"`
	Status        string    `json:"status" dynamodbav:"status"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type CreateCaseRequest struct {
	VictimName    string   `json:"victim_name" validate:"required"`
	MobileNumber  string   `json:"mobile_number" validate:"required"`
	Address       string   `json:"address" validate:"required"`
	Category      string   `json:"category" validate:"required"`
	Subcategories []string `json:"subcategories" validate:"required,min=1"`
}
