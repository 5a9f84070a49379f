package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/saathi-inc/saathi/internal/shared/errors"
)

// ParseUintParam parses a positive numeric ID from a URL path parameter.
// entityName is used in error messages (e.g., "subscriber", "plan").
func ParseUintParam(c *gin.Context, paramName, entityName string) (uint, error) {
	raw := c.Param(paramName)
	if raw == "" {
		return 0, errors.NewValidationError(entityName + " ID is required")
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, errors.NewValidationError("invalid " + entityName + " ID")
	}
	return uint(n), nil
}
