package domain

import "time"

// EmailOTP is one issued verification code. Records are append-only:
// every request creates a new one and nothing is ever mutated except the
// verified_at marker set by a successful confirmation.
//
// PK: email, SK: otp_id (ULID). ULIDs sort by creation time, so the
// highest sort key under an email partition is the authoritative latest
// record. ExpiresAt doubles as the DynamoDB TTL attribute so abandoned
// history is garbage-collected by the storage layer.
type EmailOTP struct {
	Email      string     `json:"email" dynamodbav:"email"`
	OtpID      string     `json:"-" dynamodbav:"otp_id"`
	Code       string     `json:"-" dynamodbav:"code"`
	CreatedAt  time.Time  `json:"created_at" dynamodbav:"created_at"`
	VerifiedAt *time.Time `json:"-" dynamodbav:"verified_at,omitempty"`
	ExpiresAt  int64      `json:"-" dynamodbav:"expires_at"` // Unix seconds
}

// Expired reports whether the code is no longer valid at now.
// The boundary is pinned to the expired side: a code checked at exactly
// ExpiresAt is already expired.
func (o *EmailOTP) Expired(now time.Time) bool {
	return now.Unix() >= o.ExpiresAt
}

// Verified reports whether a successful confirmation was recorded.
func (o *EmailOTP) Verified() bool {
	return o.VerifiedAt != nil
}
