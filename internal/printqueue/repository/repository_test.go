package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/testutil"
)

func TestRollDecrementIsConditional(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	color := testutil.SeedColor(t, db, "Galaxy Black", "Prusament", true)
	roll := testutil.SeedRoll(t, db, color.ID, 1000, 150)
	weight := 350.0
	require.NoError(t, repos.Roll.Updates(ctx, roll.ID, map[string]interface{}{"weight_current_grams": weight}))

	ok, err := repos.Roll.Decrement(ctx, roll.ID, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.Roll.Decrement(ctx, roll.ID, 60)
	require.NoError(t, err)
	assert.False(t, ok, "only 50g left")

	got, err := repos.Roll.FindByID(ctx, roll.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50, got.GramsRemaining, 1e-9)
	require.NotNil(t, got.WeightCurrentGrams)
	assert.InDelta(t, 250, *got.WeightCurrentGrams, 1e-9)

	ok, err = repos.Roll.Decrement(ctx, 9999, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRollDecrementLeavesUntrackedWeightNull(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	color := testutil.SeedColor(t, db, "White", "", true)
	roll := testutil.SeedRoll(t, db, color.ID, 1000, 1000)

	ok, err := repos.Roll.Decrement(ctx, roll.ID, 120)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repos.Roll.FindByID(ctx, roll.ID)
	require.NoError(t, err)
	assert.InDelta(t, 880, got.GramsRemaining, 1e-9)
	assert.Nil(t, got.WeightCurrentGrams)
}

func TestColorDuplicateIsTranslated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	acme := "Acme"
	require.NoError(t, repos.Color.Create(ctx, &entity.FilamentColor{Name: "Red", Manufacturer: &acme}))

	upper := "ACME"
	err := repos.Color.Create(ctx, &entity.FilamentColor{Name: "RED", Manufacturer: &upper})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repos.Color.FindByIdentity(ctx, "red", &upper)
	require.NoError(t, err)
	assert.Equal(t, "Red", found.Name)

	_, err = repos.Color.FindByIdentity(ctx, "red", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestColorInUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	free := testutil.SeedColor(t, db, "Free", "", true)
	onRoll := testutil.SeedColor(t, db, "On Roll", "", true)
	linked := testutil.SeedColor(t, db, "Linked", "", true)
	primary := testutil.SeedColor(t, db, "Primary", "", true)

	testutil.SeedRoll(t, db, onRoll.ID, 1000, 1000)
	project := testutil.SeedProject(t, db, "https://example.com/a", entity.UrgencyLow, entity.ProjectStatusOpen)
	require.NoError(t, repos.Project.LinkColors(ctx, project.ID, linked.ID))
	require.NoError(t, repos.Project.Updates(ctx, project.ID, map[string]interface{}{"color_id": primary.ID}))

	for _, tc := range []struct {
		color *entity.FilamentColor
		want  bool
	}{{free, false}, {onRoll, true}, {linked, true}, {primary, true}} {
		inUse, err := repos.Color.InUse(ctx, tc.color.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, inUse, tc.color.Name)
	}
}

func TestLookupRenameCascadesIntoColors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	maker := testutil.SeedLookup(t, db, entity.TableManufacturers, "Prusa")
	testutil.SeedColor(t, db, "Orange", "prusa", true)
	testutil.SeedColor(t, db, "Grey", "PRUSA", true)
	other := testutil.SeedColor(t, db, "Orange", "Polymaker", true)

	err := repos.Transaction(ctx, func(tx *Repositories) error {
		if err := tx.Manufacturer.Rename(ctx, maker.ID, "Prusa Research"); err != nil {
			return err
		}
		_, err := tx.Manufacturer.RenameInColors(ctx, maker.Name, "Prusa Research")
		return err
	})
	require.NoError(t, err)

	count, err := repos.Manufacturer.CountColors(ctx, "prusa research")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	untouched, err := repos.Color.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Polymaker", *untouched.Manufacturer)

	renamed, err := repos.Manufacturer.FindByID(ctx, maker.ID)
	require.NoError(t, err)
	assert.Equal(t, "Prusa Research", renamed.Name)
}

func TestProjectLinkColorsIgnoresExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	a := testutil.SeedColor(t, db, "A", "", true)
	b := testutil.SeedColor(t, db, "B", "", true)
	project := testutil.SeedProject(t, db, "https://example.com/p", entity.UrgencyMedium, entity.ProjectStatusOpen)

	require.NoError(t, repos.Project.LinkColors(ctx, project.ID, a.ID))
	require.NoError(t, repos.Project.LinkColors(ctx, project.ID, a.ID, b.ID))

	colors, err := repos.Project.ColorsFor(ctx, []uint{project.ID})
	require.NoError(t, err)
	require.Len(t, colors, 2)
	assert.Equal(t, "A", colors[0].Name)
	assert.Equal(t, project.ID, colors[0].ProjectID)
}

func TestProjectDeleteRemovesUsageAndLinks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	color := testutil.SeedColor(t, db, "Blue", "", true)
	roll := testutil.SeedRoll(t, db, color.ID, 1000, 900)
	project := testutil.SeedProject(t, db, "https://example.com/d", entity.UrgencyHigh, entity.ProjectStatusDone)
	require.NoError(t, repos.Project.LinkColors(ctx, project.ID, color.ID))
	require.NoError(t, repos.Project.AddUsage(ctx, &entity.ProjectFilamentUsage{ProjectID: project.ID, RollID: roll.ID, GramsUsed: 100}))

	require.NoError(t, repos.Project.Delete(ctx, project.ID))

	_, err := repos.Project.FindByID(ctx, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var links, usage int64
	db.Model(&entity.ProjectColor{}).Where("project_id = ?", project.ID).Count(&links)
	db.Model(&entity.ProjectFilamentUsage{}).Where("project_id = ?", project.ID).Count(&usage)
	assert.Zero(t, links)
	assert.Zero(t, usage)

	kept, err := repos.Roll.FindByID(ctx, roll.ID)
	require.NoError(t, err)
	assert.InDelta(t, 900, kept.GramsRemaining, 1e-9)
}

func TestLatestHighUrgent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	_, err := repos.Project.LatestHighUrgent(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	testutil.SeedProject(t, db, "https://example.com/old", entity.UrgencyHigh, entity.ProjectStatusInProgress)
	latest := testutil.SeedProject(t, db, "https://example.com/new", entity.UrgencyHigh, entity.ProjectStatusOpen)
	testutil.SeedProject(t, db, "https://example.com/done", entity.UrgencyHigh, entity.ProjectStatusDone)
	testutil.SeedProject(t, db, "https://example.com/low", entity.UrgencyLow, entity.ProjectStatusOpen)

	got, err := repos.Project.LatestHighUrgent(ctx)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID)

	open, err := repos.Project.CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), open)
}
