package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Token        string    `json:"token"`
	Status       bool      `json:"status"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=8,max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User
	EncodedJWT string `json:"encoded_jwt"`
	ExpiresIn  int64  `json:"expires_in"`
}

type UpdateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required,min=8,max=20"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdatePasswordRequest struct {
	Code        string `json:"code" validate:"required"`
	Secret      string `json:"secret" validate:"required"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type ChangeEmailCodeRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
}

type ChangeEmailRequest struct {
	Code     string `json:"code" validate:"required"`
	Secret   string `json:"secret" validate:"required"`
	NewEmail string `json:"new_email" validate:"required,email"`
}
