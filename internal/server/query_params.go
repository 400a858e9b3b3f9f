package server

import (
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

// pathID parses a required snowflake path parameter.
func pathID(c *gin.Context, name string) (snowflake.ID, error) {
	id, err := parseOptionalSnowflakeID(c.Param(name))
	if err != nil || id == nil {
		return 0, newValidationError(name, "invalid_"+name, "invalid "+name)
	}
	return *id, nil
}
