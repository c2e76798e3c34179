package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/progression"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/services"
)

// StyleInfo describes one style and the voicing constraints it applies
type StyleInfo struct {
	Name          string                `json:"name"`
	Config        harmony.VoicingConfig `json:"config"`
	DefaultRhythm string                `json:"default_rhythm"`
}

// Styles handles GET /api/v1/styles
func Styles(defaultStyle harmony.Style) gin.HandlerFunc {
	styles := make([]StyleInfo, 0, len(harmony.Styles))
	for _, s := range harmony.Styles {
		styles = append(styles, StyleInfo{
			Name:          s.String(),
			Config:        s.Config(),
			DefaultRhythm: services.DefaultRhythm(s, models.DefaultTimeSignature),
		})
	}
	complexities := []string{
		progression.ComplexitySimple.String(),
		progression.ComplexityMedium.String(),
		progression.ComplexityComplex.String(),
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"styles":             styles,
			"default_style":      defaultStyle.String(),
			"complexities":       complexities,
			"default_complexity": progression.DefaultComplexity.String(),
			"rhythms":            services.RhythmTemplateNames(),
		})
	}
}
