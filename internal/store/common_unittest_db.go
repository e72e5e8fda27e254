package store

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PrepareDBForUnitTests opens a fresh in-memory sqlite database, runs the
// migrations, and returns a ready store. Each call gets its own database.
func PrepareDBForUnitTests(t *testing.T, log logrus.FieldLogger) Store {
	t.Helper()
	require := require.New(t)

	dsn := fmt.Sprintf("file:unittest_%d?mode=memory&cache=shared", rand.Int63())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(err)

	dbStore := NewStore(db, log)
	require.NoError(dbStore.InitialMigration())
	t.Cleanup(func() {
		_ = dbStore.Close()
	})
	return dbStore
}
