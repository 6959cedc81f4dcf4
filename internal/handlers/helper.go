package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ParseUUIDParam reads a UUID path parameter. On failure it writes a 400
// response and returns uuid.Nil.
func ParseUUIDParam(c *gin.Context, param string) uuid.UUID {
	idStr := strings.TrimSpace(c.Param(param))
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a UUID",
		})
		return uuid.Nil
	}
	return id
}

// ParseIndexParam reads a non-negative integer path parameter. On failure
// it writes a 400 response and returns -1.
func ParseIndexParam(c *gin.Context, param string) int {
	index, err := strconv.Atoi(c.Param(param))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a non-negative integer",
		})
		return -1
	}
	return index
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
