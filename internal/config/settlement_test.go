package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateSettlementConfig(t *testing.T) {
	assert.NoError(t, validateSettlementConfig(DefaultSettlementConfig()))
	assert.Error(t, validateSettlementConfig(SettlementConfig{LockEnabled: true}))
	assert.NoError(t, validateSettlementConfig(SettlementConfig{LockEnabled: false}))
}

func TestSettlementConfigHolderGet(t *testing.T) {
	var nilHolder *SettlementConfigHolder
	assert.Equal(t, DefaultSettlementConfig(), nilHolder.Get())

	holder := NewStaticSettlementConfigHolder(SettlementConfig{LockEnabled: true, LockTTL: time.Minute})
	assert.Equal(t, time.Minute, holder.Get().LockTTL)
	assert.False(t, holder.Get().PublishEvents)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("EVENT_SUBJECT_PREFIX", "custom.prefix.")
	cfg := Load()
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, "custom.prefix", cfg.EventSubjectPrefix)
	assert.Equal(t, int64(1), cfg.SnowflakeNode)
	assert.False(t, cfg.IsProduction())
}
