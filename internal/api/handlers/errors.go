package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
)

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, rota.ErrInvalidSetting),
		errors.Is(err, database.ErrInvalidTalk),
		errors.Is(err, database.ErrInvalidRecorder):
		status = http.StatusBadRequest
	case errors.Is(err, rota.ErrClash):
		status = http.StatusConflict
	case errors.Is(err, rota.ErrTalkNotFound),
		errors.Is(err, rota.ErrRecorderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseTalkID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid talk ID"})
		return 0, false
	}
	return uint(id), true
}
