package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) views(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("projects AS p").
		Select(`p.*, c.name AS color_name, c.manufacturer AS color_manufacturer,
			c.in_stock AS color_in_stock`).
		Joins("LEFT JOIN filament_colors c ON c.id = p.color_id")
}

// List returns projects newest first, without colors and usage
func (r *ProjectRepository) List(ctx context.Context, includeArchived bool) ([]entity.ProjectView, error) {
	query := r.views(ctx)
	if !includeArchived {
		query = query.Where("p.archived = ?", false)
	}
	var projects []entity.ProjectView
	err := query.Order("p.created_at DESC, p.id DESC").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) FindViewByID(ctx context.Context, id uint) (*entity.ProjectView, error) {
	var project entity.ProjectView
	if err := r.views(ctx).Where("p.id = ?", id).Take(&project).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id uint) (*entity.Project, error) {
	var project entity.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

// ColorsFor batch loads the linked colors of the given projects
func (r *ProjectRepository) ColorsFor(ctx context.Context, projectIDs []uint) ([]entity.ProjectColorView, error) {
	var colors []entity.ProjectColorView
	if len(projectIDs) == 0 {
		return colors, nil
	}
	err := r.db.WithContext(ctx).
		Table("project_colors AS pc").
		Select(`pc.project_id, c.id, c.name, c.manufacturer, c.material_type,
			c.hex_color, c.in_stock`).
		Joins("JOIN filament_colors c ON c.id = pc.color_id").
		Where("pc.project_id IN ?", projectIDs).
		Order("LOWER(c.name) ASC, LOWER(COALESCE(c.manufacturer, '')) ASC").
		Scan(&colors).Error
	return colors, err
}

// UsageFor batch loads the consumption records of the given projects, newest first
func (r *ProjectRepository) UsageFor(ctx context.Context, projectIDs []uint) ([]entity.ProjectUsageView, error) {
	var usage []entity.ProjectUsageView
	if len(projectIDs) == 0 {
		return usage, nil
	}
	err := r.db.WithContext(ctx).
		Table("project_filament_usage AS u").
		Select(`u.project_id, u.id, u.roll_id, u.grams_used, u.created_at,
			r.label AS roll_label, c.id AS color_id, c.name AS color_name,
			c.manufacturer AS color_manufacturer`).
		Joins("JOIN filament_rolls r ON r.id = u.roll_id").
		Joins("JOIN filament_colors c ON c.id = r.color_id").
		Where("u.project_id IN ?", projectIDs).
		Order("u.created_at DESC, u.id DESC").
		Scan(&usage).Error
	return usage, err
}

func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) Updates(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.Project{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// LinkColors inserts project_colors rows, ignoring pairs that already exist
func (r *ProjectRepository) LinkColors(ctx context.Context, projectID uint, colorIDs ...uint) error {
	if len(colorIDs) == 0 {
		return nil
	}
	links := make([]entity.ProjectColor, 0, len(colorIDs))
	for _, colorID := range colorIDs {
		links = append(links, entity.ProjectColor{ProjectID: projectID, ColorID: colorID})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error
}

// SetPrimaryColorIfEmpty sets color_id only while the project has none
func (r *ProjectRepository) SetPrimaryColorIfEmpty(ctx context.Context, id, colorID uint) error {
	return r.db.WithContext(ctx).Model(&entity.Project{}).
		Where("id = ? AND color_id IS NULL", id).
		Update("color_id", colorID).Error
}

func (r *ProjectRepository) HasUsage(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ProjectFilamentUsage{}).
		Where("project_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *ProjectRepository) AddUsage(ctx context.Context, usage *entity.ProjectFilamentUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// Delete removes the project with its usage records and color links
func (r *ProjectRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&entity.ProjectFilamentUsage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&entity.ProjectColor{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Project{}, "id = ?", id).Error
	})
}

// CountOpen counts non-archived projects in status Open
func (r *ProjectRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Project{}).
		Where("archived = ? AND status = ?", false, entity.ProjectStatusOpen).
		Count(&count).Error
	return count, err
}

// LatestHighUrgent returns the newest non-archived high urgency project still open or in progress
func (r *ProjectRepository) LatestHighUrgent(ctx context.Context) (*entity.Project, error) {
	var project entity.Project
	err := r.db.WithContext(ctx).
		Where("archived = ? AND urgency = ? AND status IN ?", false, entity.UrgencyHigh,
			[]string{entity.ProjectStatusOpen, entity.ProjectStatusInProgress}).
		Order("created_at DESC, id DESC").
		First(&project).Error
	if err != nil {
		return nil, translate(err)
	}
	return &project, nil
}
