package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps driver and gorm errors onto the package errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return ErrDuplicate
	default:
		return err
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// Repositories repository collection
type Repositories struct {
	db           *gorm.DB
	Color        *ColorRepository
	Manufacturer *LookupRepository
	Material     *LookupRepository
	Roll         *RollRepository
	Project      *ProjectRepository
}

// NewRepositories creates the repository collection on db, which may be a transaction handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Color:        NewColorRepository(db),
		Manufacturer: NewLookupRepository(db, entity.TableManufacturers, "manufacturer"),
		Material:     NewLookupRepository(db, entity.TableMaterials, "material_type"),
		Roll:         NewRollRepository(db),
		Project:      NewProjectRepository(db),
	}
}

func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Transaction runs fn with repositories bound to one transaction. Returning an error rolls back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
