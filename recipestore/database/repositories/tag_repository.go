package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/foodshare/recipe-store/recipestore/config"
	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/uptrace/bun"
)

type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	GetAll(ctx context.Context) ([]*models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id int64) error
}

type tagRepository struct {
	*BaseRepository
}

func NewTagRepository(db *bun.DB) TagRepository {
	return &tagRepository{BaseRepository: NewBaseRepository(db)}
}

func validateTag(tag *models.Tag) error {
	if fieldTooLong(tag.Name, config.MaxTagNameLength) {
		return fmt.Errorf("tag name exceeds %d characters", config.MaxTagNameLength)
	}
	if fieldTooLong(tag.Color, config.MaxTagColorLength) {
		return fmt.Errorf("tag color exceeds %d characters", config.MaxTagColorLength)
	}
	if fieldTooLong(tag.Slug, config.MaxTagSlugLength) {
		return fmt.Errorf("tag slug exceeds %d characters", config.MaxTagSlugLength)
	}
	return nil
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if err := validateTag(tag); err != nil {
		return err
	}

	tag.CreatedAt = time.Now()
	tag.UpdatedAt = time.Now()
	_, err := r.GetDB().NewInsert().
		Model(tag).
		Returning("id").
		Exec(ctx)
	return r.HandleError("create", "tag", err)
}

func (r *tagRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	tag := new(models.Tag)
	err := r.GetDB().NewSelect().
		Model(tag).
		Where("t.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "tag", id, err)
	}
	return tag, nil
}

func (r *tagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	tag := new(models.Tag)
	err := r.GetDB().NewSelect().
		Model(tag).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "tag", slug, err)
	}
	return tag, nil
}

func (r *tagRepository) GetAll(ctx context.Context) ([]*models.Tag, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var tags []*models.Tag
	err := r.GetDB().NewSelect().
		Model(&tags).
		Order("name ASC").
		Scan(ctx)
	return tags, r.HandleError("get_all", "tag", err)
}

func (r *tagRepository) Update(ctx context.Context, tag *models.Tag) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if err := validateTag(tag); err != nil {
		return err
	}

	tag.UpdatedAt = time.Now()
	res, err := r.GetDB().NewUpdate().
		Model(tag).
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update", "tag", tag.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "tag", ID: tag.ID}
	}
	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.GetDB().NewDelete().
		Model((*models.Tag)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("delete", "tag", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "tag", ID: id}
	}
	return nil
}
