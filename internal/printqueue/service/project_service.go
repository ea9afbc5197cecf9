package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/apperr"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/repository"
	"github.com/Aceless34/PrintingQueue/internal/shared/metrics"
)

// ProjectService print projects and the filament booked against them
type ProjectService struct {
	repos   *repository.Repositories
	metrics *metrics.Metrics
}

func NewProjectService(repos *repository.Repositories, m *metrics.Metrics) *ProjectService {
	return &ProjectService{repos: repos, metrics: m}
}

// ColorSelector the ways a project create names its colors
type ColorSelector struct {
	ColorIDs          []ID      `json:"colorIds"`
	ColorID           Field[ID] `json:"colorId"`
	ColorName         *string   `json:"colorName"`
	ColorManufacturer *string   `json:"colorManufacturer"`
}

type CreateProjectRequest struct {
	URL      string        `json:"url"`
	Quantity Field[Amount] `json:"quantity"`
	Notes    string        `json:"notes"`
	Urgency  string        `json:"urgency"`
	ColorSelector
}

// ConsumptionEntry grams drawn from one roll
type ConsumptionEntry struct {
	RollID ID     `json:"rollId"`
	Grams  Amount `json:"grams"`
}

type UpdateProjectRequest struct {
	Status       Field[string]             `json:"status"`
	Archived     Field[bool]               `json:"archived"`
	Consumptions Field[[]ConsumptionEntry] `json:"consumptions"`
}

const msgProjectNotFound = "Project not found"

// List returns projects newest first with colors and usage loaded in two batch queries
func (s *ProjectService) List(ctx context.Context, includeArchived bool) ([]entity.ProjectView, error) {
	projects, err := s.repos.Project.List(ctx, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if err := s.attach(ctx, s.repos, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id uint) (*entity.ProjectView, error) {
	project, err := s.repos.Project.FindViewByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(msgProjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	views := []entity.ProjectView{*project}
	if err := s.attach(ctx, s.repos, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// attach fills colors, usage and total_grams_used of every project in place
func (s *ProjectService) attach(ctx context.Context, repos *repository.Repositories, projects []entity.ProjectView) error {
	if len(projects) == 0 {
		return nil
	}
	ids := lo.Map(projects, func(p entity.ProjectView, _ int) uint { return p.ID })

	colors, err := repos.Project.ColorsFor(ctx, ids)
	if err != nil {
		return fmt.Errorf("load project colors: %w", err)
	}
	usage, err := repos.Project.UsageFor(ctx, ids)
	if err != nil {
		return fmt.Errorf("load project usage: %w", err)
	}
	colorsByProject := lo.GroupBy(colors, func(c entity.ProjectColorView) uint { return c.ProjectID })
	usageByProject := lo.GroupBy(usage, func(u entity.ProjectUsageView) uint { return u.ProjectID })

	for i := range projects {
		p := &projects[i]
		p.Colors = append([]entity.ProjectColorView{}, colorsByProject[p.ID]...)
		p.Usage = append([]entity.ProjectUsageView{}, usageByProject[p.ID]...)
		p.TotalGramsUsed = lo.SumBy(p.Usage, func(u entity.ProjectUsageView) float64 { return u.GramsUsed })
	}
	return nil
}

// resolveColorIDs unions the id list, the single id and a find-or-create by name. Colors created
// here are not in stock. Order of first appearance is kept.
func resolveColorIDs(ctx context.Context, repos *repository.Repositories, sel ColorSelector) ([]uint, error) {
	var ids []uint
	for _, id := range sel.ColorIDs {
		if id == 0 {
			return nil, apperr.Validation("Color ids must be integers")
		}
		ids = append(ids, uint(id))
	}
	if sel.ColorID.Valid {
		if sel.ColorID.Value == 0 {
			return nil, apperr.Validation("Color id must be an integer")
		}
		ids = append(ids, uint(sel.ColorID.Value))
	}

	if sel.ColorName != nil && *sel.ColorName != "" {
		name := strings.TrimSpace(*sel.ColorName)
		if name == "" {
			return nil, apperr.Validation("Color name cannot be empty")
		}
		manufacturer := trimToPtr(sel.ColorManufacturer)
		color, err := repos.Color.FindByIdentity(ctx, name, manufacturer)
		if errors.Is(err, repository.ErrNotFound) {
			color = &entity.FilamentColor{Name: name, Manufacturer: manufacturer, InStock: false}
			err = repos.Color.Create(ctx, color)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve color by name: %w", err)
		}
		ids = append(ids, color.ID)
	}

	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	found, err := repos.Color.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check colors: %w", err)
	}
	if len(found) != len(ids) {
		return nil, apperr.Validation("Color not found")
	}
	return ids, nil
}

func (s *ProjectService) Create(ctx context.Context, req *CreateProjectRequest) (*entity.ProjectView, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, apperr.Validation("URL is required")
	}
	qty := float64(req.Quantity.Value)
	if !req.Quantity.Valid || !req.Quantity.Value.finite() || qty < 1 || qty != math.Trunc(qty) {
		return nil, apperr.Validation("Quantity must be a positive integer")
	}
	if !lo.Contains(entity.ValidUrgencies, req.Urgency) {
		return nil, apperr.Validation("Urgency must be Low, Medium, or High")
	}

	var projectID uint
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		colorIDs, err := resolveColorIDs(ctx, tx, req.ColorSelector)
		if err != nil {
			return err
		}
		project := &entity.Project{
			URL:      url,
			Quantity: int(qty),
			Notes:    req.Notes,
			Urgency:  req.Urgency,
			Status:   entity.ProjectStatusOpen,
		}
		if len(colorIDs) > 0 {
			project.ColorID = &colorIDs[0]
		}
		if err := tx.Project.Create(ctx, project); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		projectID = project.ID
		return tx.Project.LinkColors(ctx, project.ID, colorIDs...)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, projectID)
}

// Update applies status and archived changes and books consumption against rolls in one
// transaction. Consumption is only accepted for finished projects, and a project cannot be
// finished without any filament booked.
func (s *ProjectService) Update(ctx context.Context, id uint, req *UpdateProjectRequest) (*entity.ProjectView, error) {
	existing, err := s.repos.Project.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(msgProjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}

	fields := map[string]interface{}{}
	status := ""
	if req.Status.Valid && req.Status.Value != "" {
		status = req.Status.Value
		if !lo.Contains(entity.ValidProjectStatuses, status) {
			return nil, apperr.Validation("Status must be Open, InProgress, or Done")
		}
		fields["status"] = status
	}
	if req.Archived.Set {
		fields["archived"] = req.Archived.Valid && req.Archived.Value
	}

	entries := req.Consumptions.Value
	hasConsumptions := req.Consumptions.Set
	if hasConsumptions && len(entries) == 0 {
		return nil, apperr.Validation("Consumptions cannot be empty")
	}

	finished := existing.Status == entity.ProjectStatusDone
	if hasConsumptions && !finished && status != entity.ProjectStatusDone {
		return nil, apperr.Validation("Consumption can only be booked for finished projects")
	}
	if status == entity.ProjectStatusDone && !finished && !hasConsumptions {
		booked, err := s.repos.Project.HasUsage(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check project usage: %w", err)
		}
		if !booked {
			return nil, apperr.Validation("Filament usage must be specified before completing the project")
		}
	}
	if len(fields) == 0 && !hasConsumptions {
		return nil, apperr.Validation("No valid fields to update")
	}
	for _, entry := range entries {
		if entry.RollID == 0 {
			return nil, apperr.Validation("Roll id must be an integer")
		}
		if !entry.Grams.finite() || entry.Grams <= 0 {
			return nil, apperr.Validation("Grams must be a positive number")
		}
		if _, err := s.repos.Roll.FindByID(ctx, uint(entry.RollID)); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperr.Validation(msgRollNotFound)
			}
			return nil, fmt.Errorf("find roll: %w", err)
		}
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if len(fields) > 0 {
			if err := tx.Project.Updates(ctx, id, fields); err != nil {
				return fmt.Errorf("update project: %w", err)
			}
		}
		for _, entry := range entries {
			if err := s.book(ctx, tx, id, uint(entry.RollID), float64(entry.Grams)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		s.metrics.ObserveConsumption(float64(entry.Grams))
	}
	return s.Get(ctx, id)
}

// book draws grams from a roll for the project and links the roll's color
func (s *ProjectService) book(ctx context.Context, tx *repository.Repositories, projectID, rollID uint, grams float64) error {
	roll, err := tx.Roll.FindByID(ctx, rollID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Validation(msgRollNotFound)
	}
	if err != nil {
		return fmt.Errorf("find roll: %w", err)
	}

	ok, err := tx.Roll.Decrement(ctx, rollID, grams)
	if err != nil {
		return fmt.Errorf("decrement roll: %w", err)
	}
	if !ok {
		return apperr.Validation("Not enough filament on the roll")
	}

	usage := &entity.ProjectFilamentUsage{ProjectID: projectID, RollID: rollID, GramsUsed: grams}
	if err := tx.Project.AddUsage(ctx, usage); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	if err := tx.Project.LinkColors(ctx, projectID, roll.ColorID); err != nil {
		return fmt.Errorf("link color: %w", err)
	}
	if err := tx.Project.SetPrimaryColorIfEmpty(ctx, projectID, roll.ColorID); err != nil {
		return fmt.Errorf("set primary color: %w", err)
	}
	return nil
}

// Delete removes the project with its usage records and color links. Roll inventory is not restored.
func (s *ProjectService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repos.Project.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgProjectNotFound)
		}
		return fmt.Errorf("find project: %w", err)
	}
	if err := s.repos.Project.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
