package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/teamtask/teamtask-api/internal/errors"
)

// parseIDParam reads the :id path parameter, writing a 400 when it is malformed.
func parseIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid id")
		return 0, false
	}
	return id, true
}
