package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/apperr"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/repository"
)

// LookupService manufacturers or materials. Names are referenced by colors as plain strings.
type LookupService struct {
	repos *repository.Repositories
	pick  func(*repository.Repositories) *repository.LookupRepository
	kind  string // Manufacturer | Material
}

func NewManufacturerService(repos *repository.Repositories) *LookupService {
	return &LookupService{
		repos: repos,
		pick:  func(r *repository.Repositories) *repository.LookupRepository { return r.Manufacturer },
		kind:  "Manufacturer",
	}
}

func NewMaterialService(repos *repository.Repositories) *LookupService {
	return &LookupService{
		repos: repos,
		pick:  func(r *repository.Repositories) *repository.LookupRepository { return r.Material },
		kind:  "Material",
	}
}

type LookupRequest struct {
	Name Field[string] `json:"name"`
}

func (s *LookupService) List(ctx context.Context) ([]entity.Lookup, error) {
	items, err := s.pick(s.repos).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", strings.ToLower(s.kind), err)
	}
	return items, nil
}

// Create inserts name or returns the existing entry with the same name ignoring case
func (s *LookupService) Create(ctx context.Context, req *LookupRequest) (*entity.Lookup, error) {
	name := strings.TrimSpace(req.Name.Value)
	if !req.Name.Valid || name == "" {
		return nil, apperr.Validation("Name is required")
	}
	repo := s.pick(s.repos)
	item := &entity.Lookup{Name: name}
	err := repo.Create(ctx, item)
	if errors.Is(err, repository.ErrDuplicate) {
		existing, findErr := repo.FindByName(ctx, name)
		if findErr != nil {
			return nil, fmt.Errorf("find existing %s: %w", strings.ToLower(s.kind), findErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", strings.ToLower(s.kind), err)
	}
	return item, nil
}

// Update renames the entry and every color that referenced the old name, atomically
func (s *LookupService) Update(ctx context.Context, id uint, req *LookupRequest) (*entity.Lookup, error) {
	if !req.Name.Set {
		return nil, apperr.Validation("No fields to update")
	}
	name := strings.TrimSpace(req.Name.Value)
	if !req.Name.Valid || name == "" {
		return nil, apperr.Validation("Name is required")
	}
	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		repo := s.pick(tx)
		if err := repo.Rename(ctx, id, name); err != nil {
			return err
		}
		_, err := repo.RenameInColors(ctx, existing.Name, name)
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.Conflict(s.kind + " already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("rename %s: %w", strings.ToLower(s.kind), err)
	}
	return s.find(ctx, id)
}

func (s *LookupService) Delete(ctx context.Context, id uint) error {
	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	repo := s.pick(s.repos)
	count, err := repo.CountColors(ctx, existing.Name)
	if err != nil {
		return fmt.Errorf("check %s usage: %w", strings.ToLower(s.kind), err)
	}
	if count > 0 {
		return apperr.Conflict(s.kind + " is in use and cannot be deleted")
	}
	if err := repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", strings.ToLower(s.kind), err)
	}
	return nil
}

func (s *LookupService) find(ctx context.Context, id uint) (*entity.Lookup, error) {
	item, err := s.pick(s.repos).FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(s.kind + " not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", strings.ToLower(s.kind), err)
	}
	return item, nil
}
