package models

import (
	"time"
)

type Foo struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Value       float64   `json:"value"`
	Status      bool      `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateFooRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description" validate:"required,max=255"`
	Value       *float64 `json:"value" validate:"required"`
}

type UpdateFooRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description" validate:"required,max=255"`
	Value       *float64 `json:"value" validate:"required"`
	Status      *bool    `json:"status,omitempty"`
}
