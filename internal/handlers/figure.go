package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/platform/mistral"
	"github.com/yungbote/paperdeck-backend/internal/services"
)

type FigureHandler struct {
	figureService services.FigureService
}

func NewFigureHandler(figureService services.FigureService) *FigureHandler {
	return &FigureHandler{figureService: figureService}
}

func (h *FigureHandler) OCRFromURL(c *gin.Context) {
	documentURL := c.PostForm("document_url")
	ocr, err := h.figureService.OCRFromURL(c.Request.Context(), documentURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OCR completed successfully", "ocr_response": ocr})
}

func (h *FigureHandler) OCRFromPDF(c *gin.Context) {
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
	ocr, err := h.figureService.OCRFromPDF(c.Request.Context(), fileHeader.Filename, pdf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OCR completed successfully", "ocr_response": ocr})
}

// ListFigures returns the caption-to-filename metadata for the saved
// figures; the files themselves are served statically under /figures.
func (h *FigureHandler) ListFigures(c *gin.Context) {
	metadata, err := h.figureService.StoredMetadata()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":            len(metadata),
		"figures_metadata": metadata,
	})
}

func (h *FigureHandler) SaveFigures(c *gin.Context) {
	var req struct {
		OCRResponse *mistral.OCRResponse `json:"ocr_response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	metadata, err := h.figureService.SaveFigures(req.OCRResponse)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Saved figures",
		"count":            len(metadata),
		"figures_metadata": metadata,
	})
}
