package importer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cryptonic-cms/core/internal/database"
	"github.com/cryptonic-cms/core/internal/models"
	"github.com/cryptonic-cms/core/internal/modules/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	mediaSvc := media.NewService(db, media.Options{StaticDir: t.TempDir(), Timeout: 2, MaxBytes: 1 << 20}, nil, nil, zap.NewNop())
	return NewService(db, mediaSvc, zap.NewNop()), db
}

func drinkDoc(entries ...DrinkEntry) *drinkDocument {
	return &drinkDocument{Drinks: entries}
}

func cocktailDoc(entries ...CocktailEntry) *cocktailDocument {
	return &cocktailDocument{Cocktails: entries}
}

func TestImportCreatesEntries(t *testing.T) {
	svc, db := newTestService(t)

	report, err := svc.Run(context.Background(),
		drinkDoc(
			DrinkEntry{Slug: "tonic-water", Name: "Tonic Water", Description: "bitter and fizzy", Category: "mixer", VolumeML: 200, TastingNotes: []string{"quinine", ""}},
			DrinkEntry{Slug: "London Dry Gin", Name: "London Dry Gin", Category: "spirit"},
		),
		cocktailDoc(
			CocktailEntry{Slug: "gin-tonic", Name: "Gin & Tonic", Ingredients: []string{"gin", "tonic"}, Drinks: []string{"tonic-water", "london-dry-gin"}},
		),
		Options{UpdateExisting: true})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Stats.DrinksCreated)
	assert.Equal(t, 1, report.Stats.CocktailsCreated)
	assert.Zero(t, report.Stats.Errors)

	var d models.DrinkModel
	require.NoError(t, db.Where("slug = ?", "tonic-water").First(&d).Error)
	assert.Equal(t, "Tonic Water", d.Title)
	assert.Equal(t, models.StringArray{"quinine"}, d.TastingNotes, "empty list entries are dropped")
	assert.Equal(t, models.DefaultDrinkColor, d.Color)

	var ct models.CocktailModel
	require.NoError(t, db.Where("slug = ?", "gin-tonic").First(&ct).Error)
	assert.Equal(t, models.DefaultCocktailColor, ct.Color)
	assert.Len(t, ct.DrinkIDs, 2, "both drink references resolve in one run")
	assert.Empty(t, ct.PendingDrinkSlugs)

	// the persisted run report matches what was returned
	var run models.ImportRunModel
	require.NoError(t, db.Order("id DESC").First(&run).Error)
	assert.True(t, run.Success)
	assert.Equal(t, report.Stats, run.Stats)
}

func TestImportValidationErrors(t *testing.T) {
	svc, db := newTestService(t)

	report, err := svc.Run(context.Background(),
		drinkDoc(
			DrinkEntry{Slug: "", Name: "No Slug"},
			DrinkEntry{Slug: "no-name", Name: "   "},
			DrinkEntry{Slug: "ok", Name: "OK Drink"},
		),
		nil, Options{UpdateExisting: true})
	require.NoError(t, err)

	assert.False(t, report.Success)
	assert.Equal(t, 2, report.Stats.Errors)
	assert.Equal(t, 1, report.Stats.DrinksCreated)

	var count int64
	db.Model(&models.DrinkModel{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestReimportIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	doc := drinkDoc(DrinkEntry{Slug: "mead", Name: "Mead", Description: "honey wine"})

	_, err := svc.Run(context.Background(), doc, nil, Options{UpdateExisting: true})
	require.NoError(t, err)
	report, err := svc.Run(context.Background(), doc, nil, Options{UpdateExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Stats.DrinksCreated)
	assert.Equal(t, 1, report.Stats.DrinksUpdated)

	var count int64
	db.Model(&models.DrinkModel{}).Count(&count)
	assert.EqualValues(t, 1, count, "same slug stays one row")
}

func TestSkipExistingWhenUpdateDisabled(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Run(context.Background(),
		drinkDoc(DrinkEntry{Slug: "mead", Name: "Mead", Description: "original"}),
		nil, Options{UpdateExisting: true})
	require.NoError(t, err)

	report, err := svc.Run(context.Background(),
		drinkDoc(DrinkEntry{Slug: "mead", Name: "Mead Renamed", Description: "changed"}),
		nil, Options{UpdateExisting: false})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.DrinksSkipped)

	var d models.DrinkModel
	require.NoError(t, db.Where("slug = ?", "mead").First(&d).Error)
	assert.Equal(t, "Mead", d.Title, "skipped entries keep their stored attributes")
	assert.Equal(t, "original", d.Text)
}

func TestCrossReferencesResolveInEitherOrder(t *testing.T) {
	run := func(t *testing.T, drinksFirst bool) {
		svc, db := newTestService(t)
		drinks := drinkDoc(DrinkEntry{
			Slug: "rum", Name: "Rum",
			Cocktails:            []string{"mojito", "daiquiri"},
			FeaturedCocktailSlug: "mojito",
		})
		cocktails := cocktailDoc(
			CocktailEntry{Slug: "mojito", Name: "Mojito", Drinks: []string{"rum"}},
			CocktailEntry{Slug: "daiquiri", Name: "Daiquiri", Drinks: []string{"rum"}},
		)

		var err error
		if drinksFirst {
			_, err = svc.Run(context.Background(), drinks, nil, Options{UpdateExisting: true})
			require.NoError(t, err)
			_, err = svc.Run(context.Background(), nil, cocktails, Options{UpdateExisting: true})
		} else {
			_, err = svc.Run(context.Background(), nil, cocktails, Options{UpdateExisting: true})
			require.NoError(t, err)
			_, err = svc.Run(context.Background(), drinks, nil, Options{UpdateExisting: true})
		}
		require.NoError(t, err)

		var d models.DrinkModel
		require.NoError(t, db.Where("slug = ?", "rum").First(&d).Error)
		var mojito, daiquiri models.CocktailModel
		require.NoError(t, db.Where("slug = ?", "mojito").First(&mojito).Error)
		require.NoError(t, db.Where("slug = ?", "daiquiri").First(&daiquiri).Error)

		assert.ElementsMatch(t, models.IDList{mojito.ID, daiquiri.ID}, d.CocktailIDs)
		assert.Empty(t, d.PendingCocktailSlugs)
		require.NotNil(t, d.FeaturedCocktailID)
		assert.Equal(t, mojito.ID, *d.FeaturedCocktailID)
		assert.Empty(t, d.PendingFeaturedCocktailSlug)

		assert.Equal(t, models.IDList{d.ID}, mojito.DrinkIDs)
		assert.Equal(t, models.IDList{d.ID}, daiquiri.DrinkIDs)
	}

	t.Run("drinks first", func(t *testing.T) { run(t, true) })
	t.Run("cocktails first", func(t *testing.T) { run(t, false) })
}

func TestImportDownloadsImagesInline(t *testing.T) {
	svc, db := newTestService(t)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG fake payload"))
	}))
	t.Cleanup(origin.Close)

	report, err := svc.Run(context.Background(),
		drinkDoc(DrinkEntry{Slug: "rum", Name: "Rum", Image: origin.URL + "/rum.png"}),
		nil, Options{UpdateExisting: true, DownloadImages: true})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Stats.ImagesFetched)

	var d models.DrinkModel
	require.NoError(t, db.Where("slug = ?", "rum").First(&d).Error)
	require.NotNil(t, d.ImageID)
	assert.Empty(t, d.ImageURL)

	var a models.AttachmentModel
	require.NoError(t, db.First(&a, *d.ImageID).Error)
	assert.Equal(t, origin.URL+"/rum.png", a.SourceURL)
}

func TestImportImageFailureLeavesURLPending(t *testing.T) {
	svc, db := newTestService(t)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(origin.Close)

	report, err := svc.Run(context.Background(),
		drinkDoc(DrinkEntry{Slug: "rum", Name: "Rum", Image: origin.URL + "/rum.png"}),
		nil, Options{UpdateExisting: true, DownloadImages: true})
	require.NoError(t, err)

	assert.True(t, report.Success, "image failures do not fail the run")
	assert.Zero(t, report.Stats.ImagesFetched)

	var d models.DrinkModel
	require.NoError(t, db.Where("slug = ?", "rum").First(&d).Error)
	assert.Nil(t, d.ImageID)
	assert.Equal(t, origin.URL+"/rum.png", d.ImageURL, "pending URL retained for the sweep")
}

func TestUnresolvedReferencesAreRetained(t *testing.T) {
	svc, db := newTestService(t)

	report, err := svc.Run(context.Background(),
		drinkDoc(DrinkEntry{Slug: "rum", Name: "Rum", Cocktails: []string{"mojito"}, FeaturedCocktailSlug: "mojito"}),
		nil, Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.True(t, report.Success, "a dangling reference is a warning, not an error")

	var d models.DrinkModel
	require.NoError(t, db.Where("slug = ?", "rum").First(&d).Error)
	assert.Empty(t, d.CocktailIDs)
	assert.Equal(t, models.StringArray{"mojito"}, d.PendingCocktailSlugs)
	assert.Equal(t, "mojito", d.PendingFeaturedCocktailSlug)
	assert.Nil(t, d.FeaturedCocktailID)
}

func TestRunFromFilesMissingFileFailsRun(t *testing.T) {
	svc, db := newTestService(t)

	dir := t.TempDir()
	drinksPath := filepath.Join(dir, "drinks.json")
	require.NoError(t, os.WriteFile(drinksPath,
		[]byte(`{"drinks":[{"slug":"rum","name":"Rum"}]}`), 0o644))

	// an empty path means the variant was not requested
	report, err := svc.RunFromFiles(context.Background(), drinksPath, "", Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Stats.DrinksCreated)

	// a requested file that does not exist is a top-level error
	report, err = svc.RunFromFiles(context.Background(), drinksPath, filepath.Join(dir, "cocktails.json"), Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.NotZero(t, report.Stats.Errors)

	var count int64
	require.NoError(t, db.Model(&models.CocktailModel{}).Count(&count).Error)
	assert.Zero(t, count)
}
