package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/apperr"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/repository"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/testutil"
	"github.com/Aceless34/PrintingQueue/internal/shared/metrics"
)

func setupProjectService(t *testing.T) (*ProjectService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewProjectService(repository.NewRepositories(db), metrics.New()), db
}

func newProject(url string) *CreateProjectRequest {
	return &CreateProjectRequest{URL: url, Quantity: Some[Amount](1), Urgency: entity.UrgencyMedium}
}

func consume(entries ...ConsumptionEntry) Field[[]ConsumptionEntry] {
	return Some(entries)
}

func rollRemaining(t *testing.T, db *gorm.DB, id uint) float64 {
	t.Helper()
	var roll entity.FilamentRoll
	require.NoError(t, db.First(&roll, id).Error)
	return roll.GramsRemaining
}

func TestCreateProjectValidation(t *testing.T) {
	svc, _ := setupProjectService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateProjectRequest
		msg  string
	}{
		{"missing url", CreateProjectRequest{URL: "  ", Quantity: Some[Amount](1), Urgency: "Low"}, "URL is required"},
		{"zero quantity", CreateProjectRequest{URL: "u", Quantity: Some[Amount](0), Urgency: "Low"}, "Quantity must be a positive integer"},
		{"fractional quantity", CreateProjectRequest{URL: "u", Quantity: Some[Amount](1.5), Urgency: "Low"}, "Quantity must be a positive integer"},
		{"missing quantity", CreateProjectRequest{URL: "u", Urgency: "Low"}, "Quantity must be a positive integer"},
		{"bad urgency", CreateProjectRequest{URL: "u", Quantity: Some[Amount](1), Urgency: "Urgent"}, "Urgency must be Low, Medium, or High"},
		{"unknown color", CreateProjectRequest{URL: "u", Quantity: Some[Amount](1), Urgency: "Low",
			ColorSelector: ColorSelector{ColorIDs: []ID{42}}}, "Color not found"},
		{"blank color name", CreateProjectRequest{URL: "u", Quantity: Some[Amount](1), Urgency: "Low",
			ColorSelector: ColorSelector{ColorName: strPtr("   ")}}, "Color name cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &tt.req)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, tt.msg, err.Error())
		})
	}

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all, "failed creates leave nothing behind")
}

func TestCreateProjectResolvesColors(t *testing.T) {
	svc, db := setupProjectService(t)
	ctx := context.Background()
	red := testutil.SeedColor(t, db, "Signal Red", "Prusament", true)
	blue := testutil.SeedColor(t, db, "Azure Blue", "", true)

	req := newProject("https://www.printables.com/model/1")
	req.ColorIDs = []ID{ID(red.ID), ID(blue.ID), ID(red.ID)}
	req.ColorID = Some(ID(blue.ID))
	req.ColorName = strPtr("galaxy black")
	req.ColorManufacturer = strPtr(" Prusament ")

	project, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, entity.ProjectStatusOpen, project.Status)
	assert.False(t, project.Archived)
	require.NotNil(t, project.ColorID)
	assert.Equal(t, red.ID, *project.ColorID, "first resolved id is the primary color")
	require.NotNil(t, project.ColorName)
	assert.Equal(t, "Signal Red", *project.ColorName)
	assert.Len(t, project.Colors, 3)
	assert.Empty(t, project.Usage)
	assert.NotNil(t, project.Usage)

	created, err := repository.NewRepositories(db).Color.FindByIdentity(ctx, "Galaxy Black", strPtr("prusament"))
	require.NoError(t, err)
	assert.False(t, created.InStock, "colors created from a project are not on hand")

	again := newProject("https://www.printables.com/model/2")
	again.ColorName = strPtr("GALAXY BLACK")
	again.ColorManufacturer = strPtr("PRUSAMENT")
	second, err := svc.Create(ctx, again)
	require.NoError(t, err)
	require.Len(t, second.Colors, 1)
	assert.Equal(t, created.ID, second.Colors[0].ID, "find-or-create reuses the existing color")
}

func TestCreateProjectStoresTextVerbatim(t *testing.T) {
	svc, _ := setupProjectService(t)
	ctx := context.Background()

	req := newProject(`https://x.test/?q=1'; DROP TABLE projects; --`)
	req.Notes = `Robert'); DELETE FROM filament_rolls WHERE ("1"="1`
	project, err := svc.Create(ctx, req)
	require.NoError(t, err)

	got, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, req.URL, got.URL)
	assert.Equal(t, req.Notes, got.Notes)
}

func TestBookConsumptionWhenFinishing(t *testing.T) {
	svc, db := setupProjectService(t)
	ctx := context.Background()
	color := testutil.SeedColor(t, db, "Jet Black", "Sunlu", true)
	roll := testutil.SeedRoll(t, db, color.ID, 1000, 1000)
	project, err := svc.Create(ctx, newProject("https://makerworld.com/models/7"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, project.ID, &UpdateProjectRequest{
		Status:       Some(entity.ProjectStatusDone),
		Consumptions: consume(ConsumptionEntry{RollID: ID(roll.ID), Grams: 120}),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ProjectStatusDone, updated.Status)
	assert.InDelta(t, 880, rollRemaining(t, db, roll.ID), 1e-9)

	require.Len(t, updated.Usage, 1)
	assert.Equal(t, roll.ID, updated.Usage[0].RollID)
	assert.InDelta(t, 120, updated.Usage[0].GramsUsed, 1e-9)
	assert.Equal(t, "Jet Black", updated.Usage[0].ColorName)
	assert.InDelta(t, 120, updated.TotalGramsUsed, 1e-9)
	require.NotNil(t, updated.ColorID)
	assert.Equal(t, color.ID, *updated.ColorID, "roll color becomes primary when none was set")
	require.Len(t, updated.Colors, 1)
	assert.Equal(t, color.ID, updated.Colors[0].ID)

	more, err := svc.Update(ctx, project.ID, &UpdateProjectRequest{
		Consumptions: consume(ConsumptionEntry{RollID: ID(roll.ID), Grams: 30.5}),
	})
	require.NoError(t, err)
	assert.Len(t, more.Usage, 2)
	assert.InDelta(t, 150.5, more.TotalGramsUsed, 1e-9)
	assert.Len(t, more.Colors, 1)
	assert.InDelta(t, 849.5, rollRemaining(t, db, roll.ID), 1e-9)
}

func TestOverbookingChangesNothing(t *testing.T) {
	svc, db := setupProjectService(t)
	ctx := context.Background()
	color := testutil.SeedColor(t, db, "Orange", "", true)
	first := testutil.SeedRoll(t, db, color.ID, 1000, 500)
	second := testutil.SeedRoll(t, db, color.ID, 1000, 40)
	project := testutil.SeedProject(t, db, "https://x.test/1", entity.UrgencyLow, entity.ProjectStatusOpen)

	_, err := svc.Update(ctx, project.ID, &UpdateProjectRequest{
		Status: Some(entity.ProjectStatusDone),
		Consumptions: consume(
			ConsumptionEntry{RollID: ID(first.ID), Grams: 100},
			ConsumptionEntry{RollID: ID(second.ID), Grams: 50},
		),
	})
	require.Error(t, err)
	assert.Equal(t, "Not enough filament on the roll", err.Error())

	assert.InDelta(t, 500, rollRemaining(t, db, first.ID), 1e-9)
	assert.InDelta(t, 40, rollRemaining(t, db, second.ID), 1e-9)

	got, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProjectStatusOpen, got.Status, "status change rolled back")
	assert.Empty(t, got.Usage)
	assert.Empty(t, got.Colors)
	assert.Nil(t, got.ColorID)
}

func TestProjectUpdateGuards(t *testing.T) {
	svc, db := setupProjectService(t)
	ctx := context.Background()
	color := testutil.SeedColor(t, db, "Grey", "", true)
	roll := testutil.SeedRoll(t, db, color.ID, 1000, 1000)
	open := testutil.SeedProject(t, db, "https://x.test/open", entity.UrgencyHigh, entity.ProjectStatusOpen)

	tests := []struct {
		name string
		req  UpdateProjectRequest
		msg  string
	}{
		{"nothing to update", UpdateProjectRequest{}, "No valid fields to update"},
		{"empty status ignored", UpdateProjectRequest{Status: Some("")}, "No valid fields to update"},
		{"bad status", UpdateProjectRequest{Status: Some("Finished")}, "Status must be Open, InProgress, or Done"},
		{"done without usage", UpdateProjectRequest{Status: Some(entity.ProjectStatusDone)},
			"Filament usage must be specified before completing the project"},
		{"consumption on open project", UpdateProjectRequest{
			Consumptions: consume(ConsumptionEntry{RollID: ID(roll.ID), Grams: 10})},
			"Consumption can only be booked for finished projects"},
		{"consumption while moving to in progress", UpdateProjectRequest{
			Status:       Some(entity.ProjectStatusInProgress),
			Consumptions: consume(ConsumptionEntry{RollID: ID(roll.ID), Grams: 10})},
			"Consumption can only be booked for finished projects"},
		{"empty consumptions", UpdateProjectRequest{Status: Some(entity.ProjectStatusDone), Consumptions: consume()},
			"Consumptions cannot be empty"},
		{"bad roll id", UpdateProjectRequest{Status: Some(entity.ProjectStatusDone),
			Consumptions: consume(ConsumptionEntry{RollID: 0, Grams: 10})}, "Roll id must be an integer"},
		{"zero grams", UpdateProjectRequest{Status: Some(entity.ProjectStatusDone),
			Consumptions: consume(ConsumptionEntry{RollID: ID(roll.ID), Grams: 0})}, "Grams must be a positive number"},
		{"unknown roll", UpdateProjectRequest{Status: Some(entity.ProjectStatusDone),
			Consumptions: consume(ConsumptionEntry{RollID: 999, Grams: 10})}, "Filament roll not found"},
		{"unknown roll on open project", UpdateProjectRequest{
			Consumptions: consume(ConsumptionEntry{RollID: 999, Grams: 10})},
			"Consumption can only be booked for finished projects"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, open.ID, &tt.req)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, tt.msg, err.Error())
		})
	}

	_, err := svc.Update(ctx, 999, &UpdateProjectRequest{Archived: Some(true)})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.InDelta(t, 1000, rollRemaining(t, db, roll.ID), 1e-9)
}

func TestProjectStatusAndArchive(t *testing.T) {
	svc, db := setupProjectService(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "https://x.test/a", entity.UrgencyLow, entity.ProjectStatusOpen)
	done := testutil.SeedProject(t, db, "https://x.test/b", entity.UrgencyLow, entity.ProjectStatusDone)

	got, err := svc.Update(ctx, project.ID, &UpdateProjectRequest{Status: Some(entity.ProjectStatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, entity.ProjectStatusInProgress, got.Status)

	// already finished projects may be set to Done again without new usage
	_, err = svc.Update(ctx, done.ID, &UpdateProjectRequest{Status: Some(entity.ProjectStatusDone)})
	require.NoError(t, err)

	_, err = svc.Update(ctx, project.ID, &UpdateProjectRequest{Archived: Some(true)})
	require.NoError(t, err)

	visible, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, done.ID, visible[0].ID)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err = svc.Update(ctx, project.ID, &UpdateProjectRequest{Archived: Null[bool]()})
	require.NoError(t, err)
	assert.False(t, got.Archived, "null archived means false")
}

func TestDeleteProjectKeepsRollInventory(t *testing.T) {
	svc, db := setupProjectService(t)
	ctx := context.Background()
	color := testutil.SeedColor(t, db, "Mint", "", true)
	roll := testutil.SeedRoll(t, db, color.ID, 1000, 1000)
	project := testutil.SeedProject(t, db, "https://x.test/d", entity.UrgencyLow, entity.ProjectStatusDone)

	_, err := svc.Update(ctx, project.ID, &UpdateProjectRequest{
		Consumptions: consume(ConsumptionEntry{RollID: ID(roll.ID), Grams: 200}),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, project.ID))
	_, err = svc.Get(ctx, project.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.InDelta(t, 800, rollRemaining(t, db, roll.ID), 1e-9)

	var usage int64
	db.Model(&entity.ProjectFilamentUsage{}).Count(&usage)
	assert.Zero(t, usage)

	err = svc.Delete(ctx, project.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func strPtr(s string) *string {
	return &s
}
