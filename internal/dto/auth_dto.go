package dto

import "time"

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	SessionId   string    `json:"session_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}
