package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
)

type RollRepository struct {
	db *gorm.DB
}

func NewRollRepository(db *gorm.DB) *RollRepository {
	return &RollRepository{db: db}
}

func (r *RollRepository) views(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("filament_rolls AS r").
		Select(`r.*, c.name AS color_name, c.manufacturer AS color_manufacturer,
			c.material_type AS material_type, c.hex_color AS hex_color, c.in_stock AS color_in_stock`).
		Joins("JOIN filament_colors c ON c.id = r.color_id")
}

func (r *RollRepository) List(ctx context.Context) ([]entity.RollView, error) {
	var rolls []entity.RollView
	err := r.views(ctx).Order("r.created_at DESC, r.id DESC").Find(&rolls).Error
	return rolls, err
}

func (r *RollRepository) FindViewByID(ctx context.Context, id uint) (*entity.RollView, error) {
	var roll entity.RollView
	if err := r.views(ctx).Where("r.id = ?", id).Take(&roll).Error; err != nil {
		return nil, translate(err)
	}
	return &roll, nil
}

func (r *RollRepository) FindByID(ctx context.Context, id uint) (*entity.FilamentRoll, error) {
	var roll entity.FilamentRoll
	if err := r.db.WithContext(ctx).First(&roll, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &roll, nil
}

func (r *RollRepository) Create(ctx context.Context, roll *entity.FilamentRoll) error {
	return r.db.WithContext(ctx).Create(roll).Error
}

func (r *RollRepository) Updates(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.FilamentRoll{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Decrement books grams off the roll only if enough remain. The scale reading, when tracked,
// drops by the same amount. Returns false when the roll is missing or short.
func (r *RollRepository) Decrement(ctx context.Context, id uint, grams float64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.FilamentRoll{}).
		Where("id = ? AND grams_remaining >= ?", id, grams).
		Updates(map[string]interface{}{
			"grams_remaining":      gorm.Expr("grams_remaining - ?", grams),
			"weight_current_grams": gorm.Expr("weight_current_grams - ?", grams),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Usage lists the consumption records of a roll with their project, newest first
func (r *RollRepository) Usage(ctx context.Context, id uint) ([]entity.RollUsageView, error) {
	usage := []entity.RollUsageView{}
	err := r.db.WithContext(ctx).
		Table("project_filament_usage AS u").
		Select(`u.id, u.grams_used, u.created_at, p.id AS project_id,
			p.url AS project_url, p.status AS project_status`).
		Joins("JOIN projects p ON p.id = u.project_id").
		Where("u.roll_id = ?", id).
		Order("u.created_at DESC, u.id DESC").
		Scan(&usage).Error
	return usage, err
}
