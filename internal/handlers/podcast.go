package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/services"
)

type PodcastHandler struct {
	podcastService services.PodcastService
}

func NewPodcastHandler(podcastService services.PodcastService) *PodcastHandler {
	return &PodcastHandler{podcastService: podcastService}
}

func (h *PodcastHandler) Generate(c *gin.Context) {
	mods := services.PodcastModifiers{
		Question: c.PostForm("question"),
		Tone:     c.DefaultPostForm("tone", "Fun"),
		Length:   c.DefaultPostForm("length", "Medium (3-5 min)"),
		Language: c.DefaultPostForm("language", "English"),
	}
	documentURL := c.PostForm("document_url")
	result, err := h.podcastService.Generate(c.Request.Context(), documentURL, mods)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Podcast generated successfully", "result": result})
}

func (h *PodcastHandler) GetFile(c *gin.Context) {
	filename := c.Param("filename")
	path, err := h.podcastService.AudioPath(filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "audio/mpeg")
	c.FileAttachment(path, filepath.Base(path))
}
