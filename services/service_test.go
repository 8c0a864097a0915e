package services

import (
	"fmt"
	"testing"

	"decokatsu-challenge-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open test database")

	err = db.AutoMigrate(
		&models.ActionDefinition{},
		&models.LedgerEntry{},
		&models.Participant{},
		&models.GameAttempt{},
	)
	require.NoError(t, err, "migrate test database")
	return db
}

func newTestCatalog(t *testing.T, db *gorm.DB) *CatalogService {
	t.Helper()
	catalog, err := NewCatalogService(db)
	require.NoError(t, err)
	return catalog
}

func newTestLedger(t *testing.T) (*LedgerService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewLedgerService(db, newTestCatalog(t, db)), db
}

func countEntries(t *testing.T, db *gorm.DB, participantID string) int64 {
	t.Helper()
	var n int64
	err := db.Model(&models.LedgerEntry{}).
		Where("participant_id = ?", participantID).Count(&n).Error
	require.NoError(t, err)
	return n
}
