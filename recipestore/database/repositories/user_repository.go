package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foodshare/recipe-store/recipestore/config"
	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/uptrace/bun"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id int64, role string) error
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	*BaseRepository
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository(db)}
}

// validateUser enforces the column length limits client-side so callers
// get a plain error instead of a driver-level varchar overflow.
func validateUser(user *models.User) error {
	if fieldTooLong(user.Username, config.MaxUsernameLength) {
		return fmt.Errorf("username exceeds %d characters", config.MaxUsernameLength)
	}
	if fieldTooLong(user.FirstName, config.MaxNameLength) {
		return fmt.Errorf("first name exceeds %d characters", config.MaxNameLength)
	}
	if fieldTooLong(user.LastName, config.MaxNameLength) {
		return fmt.Errorf("last name exceeds %d characters", config.MaxNameLength)
	}
	if fieldTooLong(user.Password, config.MaxPasswordLength) {
		return fmt.Errorf("password exceeds %d characters", config.MaxPasswordLength)
	}
	if !models.ValidRole(user.Role) {
		return fmt.Errorf("invalid role %q", user.Role)
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if user.Role == "" {
		user.Role = models.RoleGuest
	}
	if err := validateUser(user); err != nil {
		return err
	}

	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	_, err := r.GetDB().NewInsert().Model(user).Exec(ctx)
	return r.HandleError("create", "user", err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	user := new(models.User)
	err := r.GetDB().NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "user", id, err)
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	user := new(models.User)
	err := r.GetDB().NewSelect().
		Model(user).
		Where("username = ?", username).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Warn("User not found in database",
				slog.String("type", "db"),
				slog.String("operation", "GetByUsername"),
				slog.String("username", username))
		}
		return nil, r.HandleErrorWithID("get", "user", username, err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	user := new(models.User)
	err := r.GetDB().NewSelect().
		Model(user).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "user", email, err)
	}
	return user, nil
}

func (r *userRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var users []*models.User
	err := r.GetDB().NewSelect().
		Model(&users).
		Order("id ASC").
		Scan(ctx)
	return users, r.HandleError("get_all", "user", err)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if err := validateUser(user); err != nil {
		return err
	}

	user.UpdatedAt = time.Now()
	res, err := r.GetDB().NewUpdate().
		Model(user).
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update", "user", user.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "user", ID: user.ID}
	}
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, id int64, role string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if !models.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	res, err := r.GetDB().NewUpdate().
		Model((*models.User)(nil)).
		Set("role = ?", role).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("set_role", "user", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "user", ID: id}
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.GetDB().NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("delete", "user", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "user", ID: id}
	}
	return nil
}
