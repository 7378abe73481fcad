package model

import (
	"time"
)

const (
	RoleOwner  = "owner"
	RoleSeeker = "seeker"
)

// Account is the profile record paired 1:1 with a credential. Role is set
// once at registration and never changes afterwards.
type Account struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Email       string     `json:"email" bson:"email" validate:"required,email"`
	Role        string     `json:"role" bson:"role" validate:"required,oneof=owner seeker"`
	FullName    string     `json:"full_name,omitempty" bson:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	PhoneNumber string     `json:"phone_number,omitempty" bson:"phone_number,omitempty" validate:"omitempty,e164"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

// ProfileUpdate carries the only fields an account may change about itself.
// Role and email are deliberately absent.
type ProfileUpdate struct {
	FullName    string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,e164"`
}

// Credential is the auth identity backing an account. Stored separately from
// the profile so registration mirrors the two-step identity/profile flow.
type Credential struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Email        string    `json:"email" bson:"email" validate:"required,email"`
	PasswordHash string    `json:"-" bson:"password_hash" validate:"required"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Session is one live session marker. ID is the token's jti; logout deletes
// the marker, which is all the revocation there is.
type Session struct {
	ID        string    `json:"id" bson:"_id"`
	AccountID string    `json:"account_id" bson:"account_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Role        string `json:"role" validate:"required,oneof=owner seeker"`
	FullName    string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,e164"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse pairs the account with its freshly issued session token.
type AuthResponse struct {
	Account *Account `json:"account"`
	Token   string   `json:"token"`
}
