package types

import (
	"time"

	"github.com/google/uuid"
)

// ImageDescriptor is what the image store hands back after an upload.
// Field names mirror the hosting-service payload the frontend already reads.
type ImageDescriptor struct {
	PublicID    string `json:"public_id"`
	SecureURL   string `json:"secure_url"`
	ContentType string `json:"content_type,omitempty"`
	Bytes       int64  `json:"bytes,omitempty"`
}

// Account is the public sub-record of a user embedded in offer responses.
type Account struct {
	Username string           `json:"username"`
	Avatar   *ImageDescriptor `json:"avatar,omitempty"`
}

// User is the full storage-layer record. Hash and salt never leave the
// repository layer in API responses.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Account    Account   `json:"account"`
	Newsletter bool      `json:"newsletter"`
	Token      string    `json:"-"`
	Hash       string    `json:"-"`
	Salt       string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublicUser is the subset returned by signup and login.
type PublicUser struct {
	ID      uuid.UUID `json:"_id"`
	Email   string    `json:"email"`
	Token   string    `json:"token"`
	Account Account   `json:"account"`
}

// AuthenticatedUser is what the auth middleware attaches to the request
// context after resolving a bearer token.
type AuthenticatedUser struct {
	ID      uuid.UUID `json:"id"`
	Account Account   `json:"account"`
}

// SignupParams carries the decoded signup form.
type SignupParams struct {
	Username   string
	Email      string
	Password   string
	Newsletter bool
	Avatar     *ImageUpload
}

// LoginRequest represents the expected JSON body for user login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ImageUpload is a raw image payload taken from a multipart request before
// it reaches the image store.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
