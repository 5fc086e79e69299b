package storage

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// dryRunDB builds statements without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=frostline dbname=frostline sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestPostgresEvents_TiesBreakByInsertionOrder(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []eventRow
		return orderedEvents(tx.Where("mission_id = ?", "m1")).Find(&rows)
	})
	assert.Contains(t, sql, "ORDER BY timestamp ASC")
	assert.Contains(t, sql, "seq ASC")
	assert.Less(t, strings.Index(sql, "timestamp ASC"), strings.Index(sql, "seq ASC"))
}

func TestPostgresEvents_SeqIsAutoIncrement(t *testing.T) {
	s, err := schema.Parse(&eventRow{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	seq := s.LookUpField("seq")
	require.NotNil(t, seq)
	assert.True(t, seq.AutoIncrement)
	assert.True(t, seq.HasDefaultValue, "inserts leave seq to the database")
}
