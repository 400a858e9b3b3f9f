package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM rounds":                                    "SELECT",
		"  insert into awarded_lines (id) values (1)":             "INSERT",
		"WITH x AS (SELECT 1) UPDATE lots SET status = 'awarded'": "SELECT",
		"":             "UNKNOWN",
		"VACUUM":       "UNKNOWN",
		"(DELETE FROM)": "DELETE",
	}
	for sql, want := range cases {
		assert.Equal(t, want, operationFromSQL(sql), sql)
	}
}

func TestDefaultGormLoggerConfig(t *testing.T) {
	assert.Equal(t, gormlogger.Warn, DefaultGormLoggerConfig(false).Level)
	assert.Equal(t, gormlogger.Info, DefaultGormLoggerConfig(true).Level)
	assert.True(t, DefaultGormLoggerConfig(false).IgnoreRecordNotFound)
}

func TestLogModeCopies(t *testing.T) {
	base := NewGormLogger(DefaultGormLoggerConfig(false))
	silent := base.LogMode(gormlogger.Silent).(*GormLogger)
	assert.Equal(t, gormlogger.Silent, silent.level)
	assert.Equal(t, gormlogger.Warn, base.level)
}
