package cocktail

import (
	"fmt"
	"testing"

	"github.com/cryptonic-cms/core/internal/database"
	"github.com/cryptonic-cms/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestResponsesResolveDrinkRefsAndImages(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	rum := models.DrinkModel{Slug: "rum", Title: "Rum"}
	require.NoError(t, db.Create(&rum).Error)

	a := models.AttachmentModel{FileName: "mojito.png", URL: "/objects/mojito.png", OwnerType: "cocktail", OwnerID: 1}
	require.NoError(t, db.Create(&a).Error)

	ct := models.CocktailModel{
		Slug: "mojito", Title: "Mojito",
		Ingredients:       models.StringArray{"rum", "mint", "lime"},
		DrinkIDs:          models.IDList{rum.ID},
		PendingDrinkSlugs: models.StringArray{"cachaca"},
		ImageID:           &a.ID,
	}
	require.NoError(t, db.Create(&ct).Error)

	out, err := svc.ToResponses([]models.CocktailModel{ct}, true)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, "/objects/mojito.png", out[0].ImageURL)
	require.Len(t, out[0].Drinks, 1, "unresolved markers are not exposed")
	assert.Equal(t, "rum", out[0].Drinks[0].Slug)
	assert.Equal(t, models.StringArray{"rum", "mint", "lime"}, out[0].Ingredients)
}

func TestGetBySlug(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	require.NoError(t, db.Create(&models.CocktailModel{Slug: "mojito", Title: "Mojito"}).Error)

	ct, err := svc.GetBySlug("mojito")
	require.NoError(t, err)
	require.NotNil(t, ct)
	assert.Equal(t, "Mojito", ct.Title)

	missing, err := svc.GetBySlug("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
