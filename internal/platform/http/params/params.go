// Package params reads typed values out of gin route parameters.
package params

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"sns_backend/internal/shared/apperror"
)

// ID parses the route parameter name as a positive integer id.
func ID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation(fmt.Sprintf("%s must be a positive integer", name))
	}
	return uint(id), nil
}
