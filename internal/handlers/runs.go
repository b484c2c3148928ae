package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/store"
)

type RunsHandler struct {
	db *store.DB
}

func NewRunsHandler(db *store.DB) *RunsHandler {
	return &RunsHandler{db: db}
}

func (h *RunsHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.db.ListRuns(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
