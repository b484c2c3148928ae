package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/services"
)

type AnalysisHandler struct {
	analysisService services.AnalysisService
}

func NewAnalysisHandler(analysisService services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

func (h *AnalysisHandler) StudentLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.analysisService.StudentLevels()})
}

func (h *AnalysisHandler) AnalyzeURL(c *gin.Context) {
	url := c.PostForm("url")
	level := c.PostForm("student_level")
	prereqs, err := h.analysisService.AnalyzeURL(c.Request.Context(), url, level)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prerequisites": prereqs})
}

func (h *AnalysisHandler) AnalyzePDF(c *gin.Context) {
	level := c.PostForm("student_level")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	pdf, err := io.ReadAll(f)
	if err != nil {
		respondError(c, err)
		return
	}
	prereqs, err := h.analysisService.AnalyzePDF(c.Request.Context(), pdf, level)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prerequisites": prereqs})
}

func (h *AnalysisHandler) StoredPrerequisites(c *gin.Context) {
	prereqs, err := h.analysisService.StoredPrerequisites()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prerequisites": prereqs})
}
