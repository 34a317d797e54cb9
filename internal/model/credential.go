package model

import "time"

// Credential is the single stored secret that gates the diary.
type Credential struct {
	SecretHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SecretRequest is the body of initialize and login requests.
type SecretRequest struct {
	Password string `json:"password"`
}

// InitStatus reports whether a credential has been set.
type InitStatus struct {
	Initialized bool `json:"initialized"`
}

// LoginResponse carries the bearer token and its lifetime in seconds.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}
