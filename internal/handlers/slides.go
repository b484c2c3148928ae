package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/services"
)

type SlidesHandler struct {
	slidesService services.SlidesService
}

func NewSlidesHandler(slidesService services.SlidesService) *SlidesHandler {
	return &SlidesHandler{slidesService: slidesService}
}

func (h *SlidesHandler) SlideDataGen(c *gin.Context) {
	level := c.PostForm("student_level")
	documentURL := c.PostForm("document_url")
	numSlides, _ := strconv.Atoi(c.DefaultPostForm("num_slides", "10"))
	topics := c.PostFormArray("selected_topics")

	outline, err := h.slidesService.GenerateSlideData(c.Request.Context(), level, documentURL, numSlides, topics)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Slide data generated successfully", "slides": len(outline.Content)})
}

func (h *SlidesHandler) EnhanceSlides(c *gin.Context) {
	msg, err := h.slidesService.EnhanceSlides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *SlidesHandler) ExecutionAgentParsing(c *gin.Context) {
	templateName := c.DefaultPostForm("template_name", "template.pptx")
	slides, warnings, err := h.slidesService.ExecutionAgentParsing(c.Request.Context(), templateName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Execution agent parsing completed",
		"slides":   len(slides),
		"warnings": warnings,
	})
}
