package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/services"
)

type PresentationHandler struct {
	presentationService services.PresentationService
	templateService     services.TemplateService
}

func NewPresentationHandler(presentationService services.PresentationService, templateService services.TemplateService) *PresentationHandler {
	return &PresentationHandler{
		presentationService: presentationService,
		templateService:     templateService,
	}
}

func (h *PresentationHandler) ExtractTemplateLayout(c *gin.Context) {
	templateName := c.DefaultPostForm("template_name", "template.pptx")
	schema, err := h.templateService.ExtractLayout(templateName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template layout extracted", "layouts": schema.LayoutNames()})
}

func (h *PresentationHandler) ConvertPlaceholders(c *gin.Context) {
	norm, err := h.templateService.ConvertPlaceholders()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Placeholders converted", "layouts": len(norm)})
}

func (h *PresentationHandler) ProcessSlidesData(c *gin.Context) {
	enriched, warnings, err := h.presentationService.ProcessSlidesData(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Slides processed and updated JSON saved.",
		"slides":   len(enriched.Content),
		"warnings": warnings,
	})
}

func (h *PresentationHandler) Generate(c *gin.Context) {
	opts := services.GenerateOptions{
		TemplateName:   c.DefaultPostForm("template_name", "template.pptx"),
		OutputFilename: c.DefaultPostForm("output_ppt_filename", "modified_presentation.pptx"),
		OptimizeImages: c.DefaultPostForm("optimize_images", "true") == "true",
	}
	result, err := h.presentationService.Generate(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Presentation generated successfully", "result": result})
}

func (h *PresentationHandler) Download(c *gin.Context) {
	filename := c.DefaultQuery("filename", "modified_presentation.pptx")
	path, err := h.presentationService.OutputPath(filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *PresentationHandler) CleanupData(c *gin.Context) {
	shouldClean := c.DefaultPostForm("should_clean", "false") == "true"
	msg, err := h.presentationService.CleanupData(shouldClean)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
