package interfaces

import (
	"context"

	"restkit/internal/models"
)

// FooRepository defines the data operations of the example resource.
type FooRepository interface {
	Create(ctx context.Context, foo *models.Foo) error
	GetByID(ctx context.Context, id int64) (*models.Foo, error)
	List(ctx context.Context, limit int, offset int) ([]models.Foo, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id int64, req *models.UpdateFooRequest) error
	ToggleStatus(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}
