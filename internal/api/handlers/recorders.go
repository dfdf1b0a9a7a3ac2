package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

type RecorderHandler struct {
	db *gorm.DB
}

func NewRecorderHandler(db *gorm.DB) *RecorderHandler {
	return &RecorderHandler{db: db}
}

// GetRecorders lists recorders with how many talks each holds.
func (h *RecorderHandler) GetRecorders(c *gin.Context) {
	type row struct {
		models.Recorder
		Load int `json:"load"`
	}

	var recorders []models.Recorder
	if err := h.db.WithContext(c.Request.Context()).Order("name asc").Find(&recorders).Error; err != nil {
		respondError(c, err)
		return
	}

	var counts []struct {
		RecorderName string
		N            int
	}
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.Talk{}).
		Select("recorder_name, COUNT(*) AS n").
		Where("recorder_name IS NOT NULL").
		Group("recorder_name").
		Scan(&counts).Error
	if err != nil {
		respondError(c, err)
		return
	}
	load := make(map[string]int, len(counts))
	for _, cnt := range counts {
		load[cnt.RecorderName] = cnt.N
	}

	out := make([]row, 0, len(recorders))
	for _, r := range recorders {
		out = append(out, row{Recorder: r, Load: load[r.Name]})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GetRecorder returns one recorder with their talks in start order.
func (h *RecorderHandler) GetRecorder(c *gin.Context) {
	var recorder models.Recorder
	err := h.db.WithContext(c.Request.Context()).
		Preload("Talks", func(db *gorm.DB) *gorm.DB { return db.Order("start_time asc") }).
		First(&recorder, "name = ?", c.Param("name")).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recorder)
}

// PutRecorder creates or updates a recorder.
func (h *RecorderHandler) PutRecorder(c *gin.Context) {
	var input struct {
		MaxShiftsPerDay int    `json:"max_shifts_per_day" binding:"required"`
		EarliestStart   string `json:"earliest_start"`
		LatestEnd       string `json:"latest_end"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recorder := models.Recorder{
		Name:            c.Param("name"),
		MaxShiftsPerDay: input.MaxShiftsPerDay,
		EarliestStart:   input.EarliestStart,
		LatestEnd:       input.LatestEnd,
	}
	if err := database.UpsertRecorders(c.Request.Context(), h.db, []models.Recorder{recorder}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recorder)
}
