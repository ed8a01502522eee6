package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/LizaRyabtseva/user-microservices/internal/models"
)

// CreateParams are the caller-supplied fields of a new user.
type CreateParams struct {
	Name  string
	Email string
}

// UpdateParams are the fields of a partial update; nil means unchanged.
type UpdateParams struct {
	Name  *string
	Email *string
}

// Repository is the storage port for user records. Implementations
// translate their native error codes into the domain errors of this
// package; callers never see driver errors.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*models.User, error)
	Update(ctx context.Context, id string, params UpdateParams) (*models.User, error)
	// Delete returns the number of records removed.
	Delete(ctx context.Context, id string) (int64, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindAll returns one page of users ordered by creation time descending,
	// together with the total record count.
	FindAll(ctx context.Context, page, limit int) ([]models.User, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates the GORM-backed Repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, params CreateParams) (*models.User, error) {
	u := &models.User{
		Name:  params.Name,
		Email: params.Email,
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, params.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (r *gormRepository) Update(ctx context.Context, id string, params UpdateParams) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	updates := map[string]any{}
	if params.Name != nil {
		updates["name"] = *params.Name
	}
	if params.Email != nil {
		updates["email"] = *params.Email
	}
	if len(updates) == 0 {
		return &u, nil
	}

	if err := r.db.WithContext(ctx).Model(&u).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, u.Email)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}

func (r *gormRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete user: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (r *gormRepository) FindAll(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
