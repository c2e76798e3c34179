package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apimiddleware "github.com/Conceptual-Machines/magda-harmonizer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/logger"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/midi"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/preview"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/services"
)

const (
	maxUploadBytes = 1 << 20
	midiMIMEType   = "audio/midi"
	wavMIMEType    = "audio/wav"
)

// HarmonizeHandler serves the harmonization endpoints
type HarmonizeHandler struct {
	harmonizer *services.Harmonizer
	store      *services.Store
	sampleRate int
}

func NewHarmonizeHandler(harmonizer *services.Harmonizer, store *services.Store, sampleRate int) *HarmonizeHandler {
	return &HarmonizeHandler{
		harmonizer: harmonizer,
		store:      store,
		sampleRate: sampleRate,
	}
}

// Harmonize handles POST /api/v1/harmonize
func (h *HarmonizeHandler) Harmonize(c *gin.Context) {
	var req models.HarmonizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	start := time.Now()
	result, err := h.harmonizer.Harmonize(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Harmonization failed", err)
		return
	}
	h.persist(c, result, time.Since(start))

	c.JSON(http.StatusOK, result)
}

// Batch handles POST /api/v1/harmonize/batch
func (h *HarmonizeHandler) Batch(c *gin.Context) {
	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	start := time.Now()
	items, err := h.harmonizer.HarmonizeBatch(c.Request.Context(), req.Requests)
	if err != nil {
		respondError(c, "Batch harmonization failed", err)
		return
	}

	failed := 0
	for _, item := range items {
		if item.Result == nil {
			failed++
			continue
		}
		h.persist(c, item.Result, time.Since(start))
	}
	log.Printf("🎼 Batch of %d melodies harmonized (%d failed) in %v", len(items), failed, time.Since(start))

	c.JSON(http.StatusOK, gin.H{"items": items, "failed": failed})
}

// HarmonizeMIDI handles POST /api/v1/harmonize/midi. The melody is read from the
// multipart "file" field; the response is a MIDI file unless format=json is set.
func (h *HarmonizeHandler) HarmonizeMIDI(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing MIDI file", "message": err.Error()})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":   "MIDI file too large",
			"message": fmt.Sprintf("limit is %d bytes", maxUploadBytes),
		})
		return
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, "Failed to open upload", err)
		return
	}
	defer f.Close()

	melody, err := midi.ReadMelody(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid MIDI file", "message": err.Error()})
		return
	}

	doubleBass, _ := strconv.ParseBool(c.PostForm("double_bass"))
	req := models.HarmonizeRequest{
		Melody:        melody.Notes,
		Style:         c.PostForm("style"),
		Complexity:    c.PostForm("complexity"),
		Rhythm:        c.PostForm("rhythm"),
		Tempo:         melody.Tempo,
		TimeSignature: &melody.TimeSignature,
		DoubleBass:    doubleBass,
	}

	start := time.Now()
	result, err := h.harmonizer.Harmonize(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Harmonization failed", err)
		return
	}
	h.persist(c, result, time.Since(start))

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, result)
		return
	}
	writeMIDI(c, result)
}

// Preview handles POST /api/v1/preview and returns the harmonization as WAV audio
func (h *HarmonizeHandler) Preview(c *gin.Context) {
	var req models.HarmonizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	result, err := h.harmonizer.Harmonize(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Harmonization failed", err)
		return
	}

	events := make([]models.NoteEvent, 0, len(result.Melody)+len(result.Harmony)+len(result.Bass))
	events = append(events, result.Melody...)
	events = append(events, result.Harmony...)
	events = append(events, result.Bass...)

	data, err := preview.Bytes(events, result.Tempo, h.sampleRate)
	if err != nil {
		if errors.Is(err, preview.ErrTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Preview too long", "message": err.Error()})
			return
		}
		respondError(c, "Preview rendering failed", err)
		return
	}

	c.Header("X-Harmonization-ID", result.ID)
	c.Data(http.StatusOK, wavMIMEType, data)
}

// Voicings handles POST /api/v1/voicings
func (h *HarmonizeHandler) Voicings(c *gin.Context) {
	var req models.VoicingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	voicings, err := h.harmonizer.VoiceChords(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Voicing failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"style":    h.harmonizer.Style(req.Style).String(),
		"voicings": voicings,
	})
}

// List handles GET /api/v1/harmonizations
func (h *HarmonizeHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.store.List(c.Request.Context(), apimiddleware.Subject(c), limit)
	if err != nil {
		respondError(c, "Failed to list harmonizations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"harmonizations": records})
}

// Get handles GET /api/v1/harmonizations/:id
func (h *HarmonizeHandler) Get(c *gin.Context) {
	record, result, err := h.store.Get(c.Request.Context(), c.Param("id"), apimiddleware.Subject(c))
	if err != nil {
		respondError(c, "Failed to load harmonization", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": record, "result": result})
}

// GetMIDI handles GET /api/v1/harmonizations/:id/midi
func (h *HarmonizeHandler) GetMIDI(c *gin.Context) {
	_, result, err := h.store.Get(c.Request.Context(), c.Param("id"), apimiddleware.Subject(c))
	if err != nil {
		respondError(c, "Failed to load harmonization", err)
		return
	}
	writeMIDI(c, result)
}

// persist stores a result; a storage failure is logged and does not fail the request
func (h *HarmonizeHandler) persist(c *gin.Context, result *models.HarmonizeResult, duration time.Duration) {
	if h.store == nil {
		return
	}
	_, err := h.store.Save(c.Request.Context(), result, services.RecordMeta{
		Subject:   apimiddleware.Subject(c),
		RequestID: c.GetString("request_id"),
		Duration:  duration,
	})
	if err != nil {
		fields := logger.WithContext(c)
		fields["harmonization_id"] = result.ID
		logger.Error("Failed to store harmonization", err, fields)
	}
}

func writeMIDI(c *gin.Context, result *models.HarmonizeResult) {
	var buf bytes.Buffer
	if err := midi.Write(&buf, midi.SongFromResult(result)); err != nil {
		respondError(c, "Failed to write MIDI", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="harmonization-%s.mid"`, result.ID))
	c.Data(http.StatusOK, midiMIMEType, buf.Bytes())
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// client went away
		status = 499
	}

	fields := logger.WithContext(c)
	fields["status_code"] = status
	if status >= http.StatusInternalServerError {
		logger.Error(msg, err, fields)
	} else {
		fields["error"] = err.Error()
		logger.Warn(msg, fields)
	}

	c.JSON(status, gin.H{
		"error":      msg,
		"message":    err.Error(),
		"request_id": c.GetString("request_id"),
	})
}
