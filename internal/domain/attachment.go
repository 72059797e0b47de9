package domain

import "time"

// Attachment is a document or video filed with a case. The object itself
// lives in S3; this row is its metadata.
type Attachment struct {
	AttachmentID string    `json:"id" dynamodbav:"attachment_id"`
	CaseID       string    `json:"case_id" dynamodbav:"case_id"`
	Object       string    `json:"-" dynamodbav:"object"` // S3 key
	Name         string    `json:"name" dynamodbav:"name"`
	Type         string    `json:"type" dynamodbav:"type"` // content type
	Size         int64     `json:"size" dynamodbav:"size"`
	Hash         string    `json:"hash" dynamodbav:"hash"` // sha256 hex
	UploadedBy   string    `json:"uploaded_by" dynamodbav:"uploaded_by_user_id"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
}
