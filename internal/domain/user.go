package domain

import "time"

// Account roles. Exactly one of victim/lawyer must be set for login to
// succeed; RoleUnspecified is a valid stored state that blocks login.
const (
	RoleVictim      = "victim"
	RoleLawyer      = "lawyer"
	RoleUnspecified = ""
)

// User is an account in the identity registry. Email is the DynamoDB
// partition key, which is what enforces global uniqueness.
type User struct {
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Email         string    `json:"email" dynamodbav:"email"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	FirstName     string    `json:"first_name" dynamodbav:"first_name"`
	LastName      string    `json:"last_name" dynamodbav:"last_name"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	Role          string    `json:"role" dynamodbav:"role"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	IsVictim  bool   `json:"is_victim"`
	IsLawyer  bool   `json:"is_lawyer"`
}

// Role resolves the caller-supplied flags to a stored role string.
// Victim wins when both flags are set; neither yields RoleUnspecified.
func (r SignupRequest) RoleName() string {
	switch {
	case r.IsVictim:
		return RoleVictim
	case r.IsLawyer:
		return RoleLawyer
	default:
		return RoleUnspecified
	}
}

// Summary is the non-sensitive view of an account returned by signup and
// login. It never carries the password hash.
type Summary struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"user_type"`
}

func (u *User) Summary() Summary {
	return Summary{
		UserID:    u.UserID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
