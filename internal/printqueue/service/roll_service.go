package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/apperr"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/repository"
)

// RollService physical filament rolls
type RollService struct {
	repos *repository.Repositories
}

func NewRollService(repos *repository.Repositories) *RollService {
	return &RollService{repos: repos}
}

type CreateRollRequest struct {
	ColorID            ID            `json:"colorId"`
	Label              *string       `json:"label"`
	GramsTotal         Field[Amount] `json:"gramsTotal"`
	GramsRemaining     Field[Amount] `json:"gramsRemaining"`
	SpoolWeightGrams   Field[Amount] `json:"spoolWeightGrams"`
	WeightCurrentGrams Field[Amount] `json:"weightCurrentGrams"`
	PurchasePrice      Field[Amount] `json:"purchasePrice"`
	PurchasedAt        Field[string] `json:"purchasedAt"`
	OpenedAt           Field[string] `json:"openedAt"`
	LastDriedAt        Field[string] `json:"lastDriedAt"`
	NeedsDrying        bool          `json:"needsDrying"`
}

type UpdateRollRequest struct {
	Label              Field[string] `json:"label"`
	GramsTotal         Field[Amount] `json:"gramsTotal"`
	GramsRemaining     Field[Amount] `json:"gramsRemaining"`
	SpoolWeightGrams   Field[Amount] `json:"spoolWeightGrams"`
	WeightCurrentGrams Field[Amount] `json:"weightCurrentGrams"`
	PurchasePrice      Field[Amount] `json:"purchasePrice"`
	PurchasedAt        Field[string] `json:"purchasedAt"`
	OpenedAt           Field[string] `json:"openedAt"`
	LastDriedAt        Field[string] `json:"lastDriedAt"`
	NeedsDrying        Field[bool]   `json:"needsDrying"`
}

const (
	msgTotalInvalid     = "Total grams must be a positive number"
	msgRemainingInvalid = "Remaining grams must be a non-negative number"
	msgSpoolInvalid     = "Spool weight must be a non-negative number"
	msgWeightInvalid    = "Current weight must be a non-negative number"
	msgPriceInvalid     = "Purchase price must be a non-negative number"
	msgWeightBelowSpool = "Current weight must exceed spool weight"
	msgRemainingAbove   = "Remaining grams cannot exceed total grams"
	msgRollNotFound     = "Filament roll not found"
)

// nonNegative validates an optional amount; absent or null yields nil
func nonNegative(f Field[Amount], message string) (*float64, error) {
	if !f.Valid {
		return nil, nil
	}
	if !f.Value.finite() || f.Value < 0 {
		return nil, apperr.Validation(message)
	}
	v := float64(f.Value)
	return &v, nil
}

func positive(f Field[Amount]) (float64, error) {
	if !f.Valid || !f.Value.finite() || f.Value <= 0 {
		return 0, apperr.Validation(msgTotalInvalid)
	}
	return float64(f.Value), nil
}

// remainingFromWeights derives the filament left from a scale reading minus the empty spool
func remainingFromWeights(weightCurrent, spoolWeight *float64) (*float64, error) {
	if weightCurrent == nil || spoolWeight == nil {
		return nil, nil
	}
	remaining := *weightCurrent - *spoolWeight
	if remaining < 0 {
		return nil, apperr.Validation(msgWeightBelowSpool)
	}
	return &remaining, nil
}

func (s *RollService) List(ctx context.Context) ([]entity.RollView, error) {
	rolls, err := s.repos.Roll.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rolls: %w", err)
	}
	return rolls, nil
}

func (s *RollService) Get(ctx context.Context, id uint) (*entity.RollView, error) {
	roll, err := s.repos.Roll.FindViewByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(msgRollNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find roll: %w", err)
	}
	return roll, nil
}

// Usage returns the roll together with its consumption history, newest first
func (s *RollService) Usage(ctx context.Context, id uint) (*entity.RollView, []entity.RollUsageView, error) {
	roll, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	usage, err := s.repos.Roll.Usage(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list roll usage: %w", err)
	}
	return roll, usage, nil
}

func (s *RollService) Create(ctx context.Context, req *CreateRollRequest) (*entity.RollView, error) {
	if req.ColorID == 0 {
		return nil, apperr.Validation("Color id must be an integer")
	}
	if _, err := s.repos.Color.FindByID(ctx, uint(req.ColorID)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Validation("Color not found")
		}
		return nil, fmt.Errorf("find color: %w", err)
	}

	total, err := positive(req.GramsTotal)
	if err != nil {
		return nil, err
	}
	spool, err := nonNegative(req.SpoolWeightGrams, msgSpoolInvalid)
	if err != nil {
		return nil, err
	}
	weight, err := nonNegative(req.WeightCurrentGrams, msgWeightInvalid)
	if err != nil {
		return nil, err
	}

	// explicit remaining, else scale reading, else a full roll
	remaining, err := nonNegative(req.GramsRemaining, msgRemainingInvalid)
	if err != nil {
		return nil, err
	}
	if remaining == nil {
		if remaining, err = remainingFromWeights(weight, spool); err != nil {
			return nil, err
		}
	}
	if remaining == nil {
		remaining = &total
	}
	if *remaining > total {
		return nil, apperr.Validation(msgRemainingAbove)
	}

	price, err := nonNegative(req.PurchasePrice, msgPriceInvalid)
	if err != nil {
		return nil, err
	}

	roll := &entity.FilamentRoll{
		ColorID:            uint(req.ColorID),
		Label:              trimToPtr(req.Label),
		GramsTotal:         total,
		GramsRemaining:     *remaining,
		SpoolWeightGrams:   spool,
		WeightCurrentGrams: weight,
		PurchasePrice:      price,
		NeedsDrying:        req.NeedsDrying,
	}
	if roll.PurchasedAt, err = parseDate("purchasedAt", req.PurchasedAt); err != nil {
		return nil, err
	}
	if roll.OpenedAt, err = parseDate("openedAt", req.OpenedAt); err != nil {
		return nil, err
	}
	if roll.LastDriedAt, err = parseDate("lastDriedAt", req.LastDriedAt); err != nil {
		return nil, err
	}

	if err := s.repos.Roll.Create(ctx, roll); err != nil {
		return nil, fmt.Errorf("create roll: %w", err)
	}
	return s.Get(ctx, roll.ID)
}

// Update layers the supplied fields over the stored roll and re-validates the result.
// When the patch touches a weight and both weights are known, the scale reading overrides
// an explicit remaining value.
func (s *RollService) Update(ctx context.Context, id uint, req *UpdateRollRequest) (*entity.RollView, error) {
	existing, err := s.repos.Roll.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(msgRollNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find roll: %w", err)
	}

	spool := existing.SpoolWeightGrams
	if req.SpoolWeightGrams.Set {
		if spool, err = nonNegative(req.SpoolWeightGrams, msgSpoolInvalid); err != nil {
			return nil, err
		}
	}
	weight := existing.WeightCurrentGrams
	if req.WeightCurrentGrams.Set {
		if weight, err = nonNegative(req.WeightCurrentGrams, msgWeightInvalid); err != nil {
			return nil, err
		}
	}
	total := existing.GramsTotal
	if req.GramsTotal.Set {
		if total, err = positive(req.GramsTotal); err != nil {
			return nil, err
		}
	}
	remaining := &existing.GramsRemaining
	if req.GramsRemaining.Set {
		if remaining, err = nonNegative(req.GramsRemaining, msgRemainingInvalid); err != nil {
			return nil, err
		}
	}
	if req.SpoolWeightGrams.Set || req.WeightCurrentGrams.Set {
		derived, err := remainingFromWeights(weight, spool)
		if err != nil {
			return nil, err
		}
		if derived != nil {
			remaining = derived
		}
	}
	if remaining == nil {
		remaining = &existing.GramsRemaining
	}
	if *remaining > total {
		return nil, apperr.Validation(msgRemainingAbove)
	}

	fields := map[string]interface{}{}
	if req.Label.Set {
		fields["label"] = trimToPtr(req.Label.Ptr())
	}
	if req.SpoolWeightGrams.Set {
		fields["spool_weight_grams"] = spool
	}
	if req.GramsTotal.Set {
		fields["grams_total"] = total
	}
	if req.GramsRemaining.Set || *remaining != existing.GramsRemaining {
		fields["grams_remaining"] = *remaining
	}
	if req.WeightCurrentGrams.Set {
		fields["weight_current_grams"] = weight
	}
	if req.PurchasePrice.Set {
		price, err := nonNegative(req.PurchasePrice, msgPriceInvalid)
		if err != nil {
			return nil, err
		}
		fields["purchase_price"] = price
	}
	for _, d := range []struct {
		column, name string
		value        Field[string]
	}{
		{"purchased_at", "purchasedAt", req.PurchasedAt},
		{"opened_at", "openedAt", req.OpenedAt},
		{"last_dried_at", "lastDriedAt", req.LastDriedAt},
	} {
		if !d.value.Set {
			continue
		}
		date, err := parseDate(d.name, d.value)
		if err != nil {
			return nil, err
		}
		fields[d.column] = date
	}
	if req.NeedsDrying.Set {
		fields["needs_drying"] = req.NeedsDrying.Valid && req.NeedsDrying.Value
	}

	if len(fields) == 0 {
		return nil, apperr.Validation("No valid fields to update")
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return tx.Roll.Updates(ctx, id, fields)
	})
	if err != nil {
		return nil, fmt.Errorf("update roll: %w", err)
	}
	return s.Get(ctx, id)
}

