package handlers

import (
	"net/http"
	"strconv"
	"time"

	"fitsocial/models"

	"github.com/gin-gonic/gin"
)

type CreatePostRequest struct {
	Kind    models.ContentKind `json:"kind" binding:"required"`
	ItemID  string             `json:"item_id" binding:"required"`
	Caption string             `json:"caption"`
}

// CreatePost creates a feed post wrapping a workout or a progress picture
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	post, err := h.content.CreatePost(c.Request.Context(), userID, req.Kind, req.ItemID, req.Caption)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.content.DeletePost(c.Request.Context(), userID, c.Param("post_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// GetFeed returns one page of the acting user's feed
func (h *Handlers) GetFeed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	start := time.Now()
	feed, err := h.feed.Feed(c.Request.Context(), userID, c.Query("cursor"), limit)
	h.observe("feed", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handlers) GetNotificationCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	count, err := h.feed.NotificationCount(c.Request.Context(), userID)
	h.observe("notification_count", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
