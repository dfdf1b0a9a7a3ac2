package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rotaview"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/storage"
)

// RotaHandler triggers rota runs and serves the rota views.
type RotaHandler struct {
	db       *gorm.DB
	engine   *rota.Engine
	storage  *storage.Client
	location *time.Location
}

func NewRotaHandler(db *gorm.DB, engine *rota.Engine, st *storage.Client, loc *time.Location) *RotaHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &RotaHandler{db: db, engine: engine, storage: st, location: loc}
}

// Generate clears every binding and rebuilds the rota.
// Query Params: dry_run=true
func (h *RotaHandler) Generate(c *gin.Context) {
	h.run(c, rota.ModeGenerate)
}

// Continue only fills unassigned talks.
func (h *RotaHandler) Continue(c *gin.Context) {
	h.run(c, rota.ModeContinue)
}

func (h *RotaHandler) run(c *gin.Context, mode rota.Mode) {
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))

	sum, err := h.engine.Run(c.Request.Context(), rota.RunOptions{Mode: mode, DryRun: dryRun, Trigger: "api"})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": sum.Message(),
		"summary": sum,
	})
}

func (h *RotaHandler) loadTalks(c *gin.Context) ([]models.Talk, bool) {
	var talks []models.Talk
	if err := h.db.WithContext(c.Request.Context()).Order("start_time asc, id asc").Find(&talks).Error; err != nil {
		respondError(c, err)
		return nil, false
	}
	return talks, true
}

func (h *RotaHandler) loadRecorders(c *gin.Context) ([]models.Recorder, bool) {
	var recorders []models.Recorder
	if err := h.db.WithContext(c.Request.Context()).Order("name asc").Find(&recorders).Error; err != nil {
		respondError(c, err)
		return nil, false
	}
	return recorders, true
}

func (h *RotaHandler) ByVenue(c *gin.Context) {
	talks, ok := h.loadTalks(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":     rotaview.ByVenue(talks),
		"coverage": rotaview.Coverage(talks),
	})
}

func (h *RotaHandler) ByTime(c *gin.Context) {
	talks, ok := h.loadTalks(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":     rotaview.ByTime(talks),
		"coverage": rotaview.Coverage(talks),
	})
}

func (h *RotaHandler) ByRecorder(c *gin.Context) {
	talks, ok := h.loadTalks(c)
	if !ok {
		return
	}
	recorders, ok := h.loadRecorders(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rotaview.ByRecorder(talks, recorders)})
}

// GetRuns lists recent rota runs. Query Params: limit (default 20)
func (h *RotaHandler) GetRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := database.ListRuns(c.Request.Context(), h.db, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}

// Export renders the rota to YAML and CSV and publishes both.
func (h *RotaHandler) Export(c *gin.Context) {
	talks, ok := h.loadTalks(c)
	if !ok {
		return
	}
	recorders, ok := h.loadRecorders(c)
	if !ok {
		return
	}

	keys, err := rotaview.Publish(c.Request.Context(), h.storage, talks, recorders, time.Now(), h.location)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"keys": keys})
}

func (h *RotaHandler) GetExports(c *gin.Context) {
	keys, err := h.storage.ListExports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": keys})
}

// DownloadExport streams a published file back. The key is the wildcard path.
func (h *RotaHandler) DownloadExport(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !strings.HasPrefix(key, storage.ExportPrefix) || strings.Contains(key, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid export key"})
		return
	}

	obj, err := h.storage.DownloadExport(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Export not found"})
		return
	}
	defer obj.Body.Close()

	c.Header("Content-Disposition", `attachment; filename="`+key[strings.LastIndex(key, "/")+1:]+`"`)
	c.DataFromReader(http.StatusOK, obj.ContentLength, obj.ContentType, obj.Body, nil)
}
