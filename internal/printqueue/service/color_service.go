package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/apperr"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/repository"
)

var hexColorPattern = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// ColorService filament colors
type ColorService struct {
	repos *repository.Repositories
}

func NewColorService(repos *repository.Repositories) *ColorService {
	return &ColorService{repos: repos}
}

type CreateColorRequest struct {
	Name         string  `json:"name"`
	Manufacturer *string `json:"manufacturer"`
	MaterialType *string `json:"material_type"`
	HexColor     *string `json:"hex_color"`
	InStock      bool    `json:"in_stock"`
}

type UpdateColorRequest struct {
	Name         Field[string] `json:"name"`
	Manufacturer Field[string] `json:"manufacturer"`
	MaterialType Field[string] `json:"material_type"`
	HexColor     Field[string] `json:"hex_color"`
	InStock      Field[bool]   `json:"in_stock"`
}

func (r UpdateColorRequest) empty() bool {
	return !r.Name.Set && !r.Manufacturer.Set && !r.MaterialType.Set && !r.HexColor.Set && !r.InStock.Set
}

// normalizeHex returns #RRGGBB in upper case. The leading # is optional on input.
func normalizeHex(raw *string) (*string, error) {
	value := trimToPtr(raw)
	if value == nil {
		return nil, nil
	}
	digits := strings.TrimPrefix(*value, "#")
	if !hexColorPattern.MatchString(digits) {
		return nil, apperr.Validation("Hex color must be in #RRGGBB format")
	}
	normalized := "#" + strings.ToUpper(digits)
	return &normalized, nil
}

func (s *ColorService) List(ctx context.Context) ([]entity.FilamentColor, error) {
	colors, err := s.repos.Color.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list colors: %w", err)
	}
	return colors, nil
}

// Create inserts a color or returns the existing one with the same name and manufacturer.
// created is false when the color already existed.
func (s *ColorService) Create(ctx context.Context, req *CreateColorRequest) (color *entity.FilamentColor, created bool, err error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, apperr.Validation("Name is required")
	}
	hex, err := normalizeHex(req.HexColor)
	if err != nil {
		return nil, false, err
	}

	color = &entity.FilamentColor{
		Name:         name,
		Manufacturer: trimToPtr(req.Manufacturer),
		MaterialType: trimToPtr(req.MaterialType),
		HexColor:     hex,
		InStock:      req.InStock,
	}
	err = s.repos.Color.Create(ctx, color)
	if errors.Is(err, repository.ErrDuplicate) {
		existing, findErr := s.repos.Color.FindByIdentity(ctx, name, color.Manufacturer)
		if findErr != nil {
			return nil, false, fmt.Errorf("find existing color: %w", findErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create color: %w", err)
	}
	return color, true, nil
}

func (s *ColorService) Update(ctx context.Context, id uint, req *UpdateColorRequest) (*entity.FilamentColor, error) {
	if req.empty() {
		return nil, apperr.Validation("No fields to update")
	}
	if _, err := s.repos.Color.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Color not found")
		}
		return nil, fmt.Errorf("find color: %w", err)
	}

	fields := map[string]interface{}{}
	if req.Name.Set {
		name := strings.TrimSpace(req.Name.Value)
		if !req.Name.Valid || name == "" {
			return nil, apperr.Validation("Name is required")
		}
		fields["name"] = name
	}
	if req.Manufacturer.Set {
		fields["manufacturer"] = trimToPtr(req.Manufacturer.Ptr())
	}
	if req.MaterialType.Set {
		fields["material_type"] = trimToPtr(req.MaterialType.Ptr())
	}
	if req.HexColor.Set {
		hex, err := normalizeHex(req.HexColor.Ptr())
		if err != nil {
			return nil, err
		}
		fields["hex_color"] = hex
	}
	if req.InStock.Set {
		if !req.InStock.Valid {
			return nil, apperr.Validation("in_stock must be true or false")
		}
		fields["in_stock"] = req.InStock.Value
	}

	if err := s.repos.Color.Updates(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Color already exists")
		}
		return nil, fmt.Errorf("update color: %w", err)
	}
	return s.repos.Color.FindByID(ctx, id)
}

func (s *ColorService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repos.Color.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Color not found")
		}
		return fmt.Errorf("find color: %w", err)
	}
	inUse, err := s.repos.Color.InUse(ctx, id)
	if err != nil {
		return fmt.Errorf("check color usage: %w", err)
	}
	if inUse {
		return apperr.Conflict("Color is in use and cannot be deleted")
	}
	if err := s.repos.Color.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete color: %w", err)
	}
	return nil
}
