package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
)

type ColorRepository struct {
	db *gorm.DB
}

func NewColorRepository(db *gorm.DB) *ColorRepository {
	return &ColorRepository{db: db}
}

func (r *ColorRepository) List(ctx context.Context) ([]entity.FilamentColor, error) {
	var colors []entity.FilamentColor
	err := r.db.WithContext(ctx).
		Order("LOWER(name) ASC, LOWER(COALESCE(manufacturer, '')) ASC").
		Find(&colors).Error
	return colors, err
}

func (r *ColorRepository) FindByID(ctx context.Context, id uint) (*entity.FilamentColor, error) {
	var color entity.FilamentColor
	if err := r.db.WithContext(ctx).First(&color, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &color, nil
}

// FindByIdentity looks a color up by name and manufacturer, ignoring case. A nil manufacturer
// matches colors without one.
func (r *ColorRepository) FindByIdentity(ctx context.Context, name string, manufacturer *string) (*entity.FilamentColor, error) {
	var color entity.FilamentColor
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND LOWER(COALESCE(manufacturer, '')) = LOWER(?)", name, deref(manufacturer)).
		First(&color).Error
	if err != nil {
		return nil, translate(err)
	}
	return &color, nil
}

// ExistingIDs returns the subset of ids that exist
func (r *ColorRepository) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	err := r.db.WithContext(ctx).Model(&entity.FilamentColor{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	return found, err
}

func (r *ColorRepository) Create(ctx context.Context, color *entity.FilamentColor) error {
	return translate(r.db.WithContext(ctx).Create(color).Error)
}

func (r *ColorRepository) Updates(ctx context.Context, id uint, fields map[string]interface{}) error {
	err := r.db.WithContext(ctx).Model(&entity.FilamentColor{}).
		Where("id = ?", id).
		Updates(fields).Error
	return translate(err)
}

func (r *ColorRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.FilamentColor{}, "id = ?", id).Error
}

// InUse reports whether a roll, a project link or a project's primary color references the color
func (r *ColorRepository) InUse(ctx context.Context, id uint) (bool, error) {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&entity.FilamentRoll{}).Where("color_id = ?", id).Count(&count).Error; err != nil || count > 0 {
		return count > 0, err
	}
	if err := db.Model(&entity.ProjectColor{}).Where("color_id = ?", id).Count(&count).Error; err != nil || count > 0 {
		return count > 0, err
	}
	err := db.Model(&entity.Project{}).Where("color_id = ?", id).Count(&count).Error
	return count > 0, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
