package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
)

// TalkHandler serves the programme and the manual recorder overrides.
type TalkHandler struct {
	db     *gorm.DB
	engine *rota.Engine
}

func NewTalkHandler(db *gorm.DB, engine *rota.Engine) *TalkHandler {
	return &TalkHandler{db: db, engine: engine}
}

// GetTalks lists talks in start order.
// Query Params: day, venue, unassigned=true
func (h *TalkHandler) GetTalks(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.Talk{})

	if day := c.Query("day"); day != "" {
		query = query.Where("day = ?", day)
	}
	if venue := c.Query("venue"); venue != "" {
		query = query.Where("venue = ?", venue)
	}
	if c.Query("unassigned") == "true" {
		query = query.Where("recorder_name IS NULL")
	}

	var talks []models.Talk
	if err := query.Order("start_time asc, id asc").Find(&talks).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": talks,
		"meta": gin.H{"total": len(talks)},
	})
}

func (h *TalkHandler) GetTalk(c *gin.Context) {
	id, ok := parseTalkID(c)
	if !ok {
		return
	}

	var talk models.Talk
	if err := h.db.WithContext(c.Request.Context()).First(&talk, id).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, talk)
}

// CreateTalk adds a talk by hand. Talks are rotaed unless told otherwise.
func (h *TalkHandler) CreateTalk(c *gin.Context) {
	var input struct {
		ID          uint      `json:"id"`
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description"`
		Speaker     string    `json:"speaker"`
		Venue       string    `json:"venue" binding:"required"`
		Day         string    `json:"day"`
		StartTime   time.Time `json:"start_time" binding:"required"`
		EndTime     time.Time `json:"end_time" binding:"required"`
		IsPriority  bool      `json:"is_priority"`
		IsRotaed    *bool     `json:"is_rotaed"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	talk := models.Talk{
		ID:          input.ID,
		Title:       input.Title,
		Description: input.Description,
		Speaker:     input.Speaker,
		Venue:       input.Venue,
		Day:         input.Day,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		IsPriority:  input.IsPriority,
		IsRotaed:    input.IsRotaed == nil || *input.IsRotaed,
	}
	if talk.Day == "" {
		talk.Day = input.StartTime.Weekday().String()
	}

	if err := database.CreateTalk(c.Request.Context(), h.db, &talk); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, talk)
}

// AssignRecorder binds a recorder to the talk after a clash check.
func (h *TalkHandler) AssignRecorder(c *gin.Context) {
	id, ok := parseTalkID(c)
	if !ok {
		return
	}
	var input struct {
		Recorder string `json:"recorder" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	talk, err := h.engine.AssignRecorder(c.Request.Context(), id, input.Recorder)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, talk)
}

func (h *TalkHandler) UnassignRecorder(c *gin.Context) {
	id, ok := parseTalkID(c)
	if !ok {
		return
	}

	talk, err := h.engine.UnassignRecorder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, talk)
}
