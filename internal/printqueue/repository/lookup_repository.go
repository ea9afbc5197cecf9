package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
)

// LookupRepository named lookup list whose names are mirrored into one filament_colors column
type LookupRepository struct {
	db          *gorm.DB
	table       string
	colorColumn string
}

func NewLookupRepository(db *gorm.DB, table, colorColumn string) *LookupRepository {
	return &LookupRepository{db: db, table: table, colorColumn: colorColumn}
}

func (r *LookupRepository) scoped(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.table)
}

func (r *LookupRepository) List(ctx context.Context) ([]entity.Lookup, error) {
	var items []entity.Lookup
	err := r.scoped(ctx).Order("LOWER(name) ASC").Find(&items).Error
	return items, err
}

func (r *LookupRepository) FindByID(ctx context.Context, id uint) (*entity.Lookup, error) {
	var item entity.Lookup
	if err := r.scoped(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *LookupRepository) FindByName(ctx context.Context, name string) (*entity.Lookup, error) {
	var item entity.Lookup
	if err := r.scoped(ctx).Where("LOWER(name) = LOWER(?)", name).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *LookupRepository) Create(ctx context.Context, item *entity.Lookup) error {
	return translate(r.scoped(ctx).Create(item).Error)
}

func (r *LookupRepository) Rename(ctx context.Context, id uint, name string) error {
	err := r.scoped(ctx).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now()}).Error
	return translate(err)
}

// RenameInColors rewrites every color whose column equals oldName ignoring case
func (r *LookupRepository) RenameInColors(ctx context.Context, oldName, newName string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.FilamentColor{}).
		Where("LOWER(COALESCE("+r.colorColumn+", '')) = LOWER(?)", oldName).
		Update(r.colorColumn, newName)
	return res.RowsAffected, translate(res.Error)
}

// CountColors counts colors referencing name ignoring case
func (r *LookupRepository) CountColors(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.FilamentColor{}).
		Where("LOWER(COALESCE("+r.colorColumn+", '')) = LOWER(?)", name).
		Count(&count).Error
	return count, err
}

func (r *LookupRepository) Delete(ctx context.Context, id uint) error {
	return r.scoped(ctx).Where("id = ?", id).Delete(&entity.Lookup{}).Error
}
