package editable

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

func intPtr(v int) *int { return &v }

func TestSaveCreatesFirstVersion(t *testing.T) {
	svc := NewService(newTestDB(t))

	result, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "A"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	require.NotNil(t, result.Entry)
	assert.Equal(t, 1, result.Entry.Version)
	assert.Equal(t, "A", result.Entry.Content)
	assert.Equal(t, models.EditableContentText, result.Entry.ContentType)
	assert.NotEmpty(t, result.Entry.EditableKey)
}

func TestSaveIncrementsVersionOnChange(t *testing.T) {
	svc := NewService(newTestDB(t))

	_, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "A"})
	require.NoError(t, err)

	result, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "B", Version: intPtr(1)})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, result.Entry.Version)
	assert.Equal(t, "B", result.Entry.Content)
}

func TestSaveStaleVersionConflicts(t *testing.T) {
	svc := NewService(newTestDB(t))

	_, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "A"})
	require.NoError(t, err)
	_, err = svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "B", Version: intPtr(1)})
	require.NoError(t, err)

	// a second editor still holding version 1 tries to write
	result, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "C", Version: intPtr(1)})
	require.NoError(t, err)

	assert.Equal(t, StatusConflict, result.Status)
	require.NotNil(t, result.Entry)
	assert.Equal(t, 2, result.Entry.Version, "conflict carries the server's current version")
	assert.Equal(t, "B", result.Entry.Content, "conflict carries the server's current content")

	stored, err := svc.Get("homepage", "hero")
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Content, "the stale write changed nothing")
}

func TestSaveIdenticalContentIsNoChange(t *testing.T) {
	svc := NewService(newTestDB(t))

	_, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "A"})
	require.NoError(t, err)

	result, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "A", Version: intPtr(1)})
	require.NoError(t, err)

	assert.Equal(t, StatusNoChange, result.Status)
	assert.Equal(t, 1, result.Entry.Version, "no version bump for identical bytes")
}

func TestSaveDefaultContentIsNoAction(t *testing.T) {
	svc := NewService(newTestDB(t))

	for _, content := range []string{"", "  ", "<p></p>", "<p><br></p>"} {
		result, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: content})
		require.NoError(t, err)
		assert.Equal(t, StatusNoAction, result.Status, "content %q", content)
	}

	stored, err := svc.Get("homepage", "hero")
	require.NoError(t, err)
	assert.Nil(t, stored, "placeholder content never creates a row")
}

func TestSaveDefaultContentFlagNeverClobbers(t *testing.T) {
	svc := NewService(newTestDB(t))

	// a seeding write may create the first version
	result, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "seeded", IsDefaultContent: true})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	_, err = svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "edited"})
	require.NoError(t, err)

	// a later seeding write leaves the real edit alone
	result, err = svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "seeded again", IsDefaultContent: true})
	require.NoError(t, err)
	assert.Equal(t, StatusNoAction, result.Status)

	stored, err := svc.Get("homepage", "hero")
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Content)
}

func TestSaveWithoutVersionOverwrites(t *testing.T) {
	svc := NewService(newTestDB(t))

	_, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "A"})
	require.NoError(t, err)

	result, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "B"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status, "omitting the version means last write wins")
	assert.Equal(t, 2, result.Entry.Version)
}

func TestAddressesAreIndependent(t *testing.T) {
	svc := NewService(newTestDB(t))

	_, err := svc.Save(SaveDTO{Context: "homepage", ContextID: "hero", Content: "A"})
	require.NoError(t, err)
	_, err = svc.Save(SaveDTO{Context: "homepage", ContextID: "footer", Content: "F"})
	require.NoError(t, err)
	_, err = svc.Save(SaveDTO{Context: "about", ContextID: "hero", Content: "X"})
	require.NoError(t, err)

	hero, err := svc.Get("homepage", "hero")
	require.NoError(t, err)
	footer, err := svc.Get("homepage", "footer")
	require.NoError(t, err)
	about, err := svc.Get("about", "hero")
	require.NoError(t, err)

	assert.Equal(t, "A", hero.Content)
	assert.Equal(t, "F", footer.Content)
	assert.Equal(t, "X", about.Content)
	assert.NotEqual(t, hero.EditableKey, footer.EditableKey)
}

func TestGetMissingAddress(t *testing.T) {
	svc := NewService(newTestDB(t))

	entry, err := svc.Get("homepage", "nope")
	require.NoError(t, err)
	assert.Nil(t, entry)

	_, err = svc.Get("", "")
	assert.ErrorIs(t, err, errInvalidAddress)
}
