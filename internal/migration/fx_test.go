package migration

import (
	"io"
	"strings"
	"testing"

	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	invitationdomain "github.com/smallbiznis/lotbid/internal/invitation/domain"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	"github.com/smallbiznis/lotbid/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrateCreatesUniqueKeys(t *testing.T) {
	conn := db.NewTest(t)
	require.NoError(t, AutoMigrate(conn))

	migrator := conn.Migrator()
	assert.True(t, migrator.HasIndex(&rounddomain.Round{}, "ux_rounds_lot_number"))
	assert.True(t, migrator.HasIndex(&awarddomain.AwardedLine{}, "ux_awarded_lines_round_item"))
	assert.True(t, migrator.HasTable(&invitationdomain.Invitation{}))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir(migrationsDir)
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(entry.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs)
}

func TestEmbeddedSourceStartsWithSettlementSchema(t *testing.T) {
	src, err := openSource()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	body, identifier, err := src.ReadUp(first)
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, "settlement", identifier)

	ddl, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(ddl), "ux_awarded_lines_round_item")
	assert.Contains(t, string(ddl), "ux_rounds_lot_number")
}
