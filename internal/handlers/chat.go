package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) InitSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session_id": h.chatService.InitSession()})
}

func (h *ChatHandler) IngestURL(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.chatService.IngestURL(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Document ingested successfully",
		"collection": result.Collection,
		"chunks":     result.Chunks,
	})
}

func (h *ChatHandler) IngestFile(c *gin.Context) {
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
	result, err := h.chatService.IngestPDF(c.Request.Context(), fileHeader.Filename, pdf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Document ingested successfully",
		"collection": result.Collection,
		"chunks":     result.Chunks,
	})
}

func (h *ChatHandler) Query(c *gin.Context) {
	var req services.ChatQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	answer, err := h.chatService.Query(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// Chat answers a question passed as query params, keeping per-session
// history when session_id is supplied.
func (h *ChatHandler) Chat(c *gin.Context) {
	q := services.ChatQuery{
		Question:  c.Query("question"),
		SessionID: c.Query("session_id"),
	}
	answer, err := h.chatService.Query(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *ChatHandler) Collections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"collections": h.chatService.Collections()})
}
