package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolhub/internal/middleware"
	"schoolhub/internal/services"
)

const (
	msgNotFound  = "The record does not exist or has already been deleted."
	msgForbidden = "You do not have permission to access this page."
)

// tolerates int, int64, float64 and numeric string values
func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID, roleID int) {
	if id, ok := getIntFromCtx(c, middleware.CtxUserID); ok {
		userID = id
	}
	if id, ok := getIntFromCtx(c, middleware.CtxRoleID); ok {
		roleID = id
	}
	return
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// respondError maps service errors to status codes. Unknown errors are logged
// and answered with fallback.
func respondError(c *gin.Context, op string, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": msgForbidden})
	case errors.Is(err, services.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
