package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestStore opens a fresh in-memory SQLite database and migrates it,
// standing in for Postgres in every Store contract test. Each test gets
// its own named shared-cache database so parallel subtests never see
// each other's rows.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	log, err := logger.New("development")
	require.NoError(t, err)

	st := New(db, log)
	require.NoError(t, st.AutoMigrateAll(context.Background(), DefaultNewCardsPerDay))
	return st
}
