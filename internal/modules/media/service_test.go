package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cryptonic-cms/core/internal/database"
	"github.com/cryptonic-cms/core/internal/models"
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

// imageOrigin serves a tiny PNG payload and counts hits.
func imageOrigin(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG fake payload"))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	return NewService(db, Options{StaticDir: t.TempDir(), Timeout: 2, MaxBytes: 1 << 20}, nil, nil, zap.NewNop())
}

func TestEnsureImageDownloadsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	origin, hits := imageOrigin(t)

	d := models.DrinkModel{Slug: "rum", Title: "Rum", ImageURL: origin.URL + "/rum.png"}
	require.NoError(t, db.Create(&d).Error)

	fetched, err := svc.EnsureImage(context.Background(), OwnerDrink, d.ID, SlotImage, EnsureOptions{})
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.EqualValues(t, 1, hits.Load())

	var got models.DrinkModel
	require.NoError(t, db.First(&got, d.ID).Error)
	require.NotNil(t, got.ImageID)
	assert.Empty(t, got.ImageURL, "pending URL is cleared once resolved")
	require.NotNil(t, got.FeaturedImageID, "primary image is promoted to featured")
	assert.Equal(t, *got.ImageID, *got.FeaturedImageID)

	var a models.AttachmentModel
	require.NoError(t, db.First(&a, *got.ImageID).Error)
	assert.Equal(t, origin.URL+"/rum.png", a.SourceURL)
	assert.Equal(t, "image/png", a.MIME)
	assert.Equal(t, OwnerDrink, a.OwnerType)
	assert.Equal(t, "rum image", a.Description)

	// second pass is a no-op: the slot is already consistent
	fetched, err = svc.EnsureImage(context.Background(), OwnerDrink, d.ID, SlotImage, EnsureOptions{})
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.EqualValues(t, 1, hits.Load())
}

func TestEnsureImageReusesSameSource(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	origin, hits := imageOrigin(t)
	url := origin.URL + "/shared.png"

	d := models.DrinkModel{Slug: "rum", Title: "Rum", ImageURL: url}
	require.NoError(t, db.Create(&d).Error)
	ct := models.CocktailModel{Slug: "mojito", Title: "Mojito", ImageURL: url}
	require.NoError(t, db.Create(&ct).Error)

	_, err := svc.EnsureImage(context.Background(), OwnerDrink, d.ID, SlotImage, EnsureOptions{})
	require.NoError(t, err)
	fetched, err := svc.EnsureImage(context.Background(), OwnerCocktail, ct.ID, SlotImage, EnsureOptions{})
	require.NoError(t, err)

	assert.False(t, fetched, "same source URL reuses the existing attachment")
	assert.EqualValues(t, 1, hits.Load())

	var gotDrink models.DrinkModel
	var gotCocktail models.CocktailModel
	require.NoError(t, db.First(&gotDrink, d.ID).Error)
	require.NoError(t, db.First(&gotCocktail, ct.ID).Error)
	require.NotNil(t, gotDrink.ImageID)
	require.NotNil(t, gotCocktail.ImageID)
	assert.Equal(t, *gotDrink.ImageID, *gotCocktail.ImageID)
}

func TestEnsureImageReplacesChangedSource(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	origin, hits := imageOrigin(t)

	d := models.DrinkModel{Slug: "rum", Title: "Rum", ImageURL: origin.URL + "/v1.png"}
	require.NoError(t, db.Create(&d).Error)

	_, err := svc.EnsureImage(context.Background(), OwnerDrink, d.ID, SlotImage, EnsureOptions{})
	require.NoError(t, err)

	var got models.DrinkModel
	require.NoError(t, db.First(&got, d.ID).Error)
	require.NotNil(t, got.ImageID)
	first := *got.ImageID

	// a later import points the slot at a new source
	require.NoError(t, db.Model(&models.DrinkModel{}).
		Where("id = ?", d.ID).
		Update("image_url", origin.URL+"/v2.png").Error)

	fetched, err := svc.EnsureImage(context.Background(), OwnerDrink, d.ID, SlotImage, EnsureOptions{})
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.EqualValues(t, 2, hits.Load())

	require.NoError(t, db.First(&got, d.ID).Error)
	require.NotNil(t, got.ImageID)
	assert.NotEqual(t, first, *got.ImageID)
	assert.Empty(t, got.ImageURL)
	require.NotNil(t, got.FeaturedImageID)
	assert.Equal(t, *got.ImageID, *got.FeaturedImageID, "featured follows the replaced primary image")
}

func TestEnsureImageForceRefetches(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	origin, hits := imageOrigin(t)

	d := models.DrinkModel{Slug: "rum", Title: "Rum", ImageURL: origin.URL + "/rum.png"}
	require.NoError(t, db.Create(&d).Error)

	_, err := svc.EnsureImage(context.Background(), OwnerDrink, d.ID, SlotImage, EnsureOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, hits.Load())

	// nothing pending, but force re-downloads from the recorded source
	fetched, err := svc.EnsureImage(context.Background(), OwnerDrink, d.ID, SlotImage, EnsureOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.EqualValues(t, 2, hits.Load())

	var got models.DrinkModel
	require.NoError(t, db.First(&got, d.ID).Error)
	require.NotNil(t, got.ImageID)
	var a models.AttachmentModel
	require.NoError(t, db.First(&a, *got.ImageID).Error)
	assert.Equal(t, origin.URL+"/rum.png", a.SourceURL)
}

func TestEnsureImageFailureKeepsPendingURL(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(origin.Close)

	d := models.DrinkModel{Slug: "rum", Title: "Rum", ImageURL: origin.URL + "/rum.png"}
	require.NoError(t, db.Create(&d).Error)

	_, err := svc.EnsureImage(context.Background(), OwnerDrink, d.ID, SlotImage, EnsureOptions{})
	require.Error(t, err)

	var got models.DrinkModel
	require.NoError(t, db.First(&got, d.ID).Error)
	assert.Nil(t, got.ImageID)
	assert.NotEmpty(t, got.ImageURL, "failed fetch leaves the URL pending for a retry")
}

func TestEnsureImageRejectsNonImage(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	t.Cleanup(origin.Close)

	d := models.DrinkModel{Slug: "rum", Title: "Rum", ImageURL: origin.URL + "/rum.png"}
	require.NoError(t, db.Create(&d).Error)

	_, err := svc.EnsureImage(context.Background(), OwnerDrink, d.ID, SlotImage, EnsureOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an image")
}

func TestVerifyIntegrityHealsPendingSlots(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	origin, hits := imageOrigin(t)

	pending := models.DrinkModel{Slug: "rum", Title: "Rum", CutoutImageURL: origin.URL + "/cutout.png"}
	require.NoError(t, db.Create(&pending).Error)
	clean := models.CocktailModel{Slug: "mojito", Title: "Mojito"}
	require.NoError(t, db.Create(&clean).Error)

	report, err := svc.VerifyIntegrity(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Checked, "two drink slots plus one cocktail slot")
	assert.Equal(t, 1, report.Healed)
	assert.Zero(t, report.Failed)
	assert.EqualValues(t, 1, hits.Load())

	var got models.DrinkModel
	require.NoError(t, db.First(&got, pending.ID).Error)
	require.NotNil(t, got.CutoutImageID)
	assert.Empty(t, got.CutoutImageURL)

	last, err := svc.LastSweep()
	require.NoError(t, err)
	require.NotNil(t, last, "sweep outcome is persisted")
	assert.Contains(t, string(last), `"healed":1`)
}

func TestVerifyIntegrityReportsUnhealableSlot(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	missing := uint(9999)
	d := models.DrinkModel{Slug: "rum", Title: "Rum", ImageID: &missing}
	require.NoError(t, db.Create(&d).Error)

	report, err := svc.VerifyIntegrity(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Problems, 1)
	assert.Contains(t, report.Problems[0], "rum")
}
