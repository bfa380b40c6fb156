package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Follow - the acting user follows :id, pending when :id is private
func (h *Handlers) Follow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	result, err := h.follows.SendFollow(c.Request.Context(), userID, c.Param("id"))
	h.observe("send_follow", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Resent {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (h *Handlers) Unfollow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	err := h.follows.Unfollow(c.Request.Context(), userID, c.Param("id"))
	h.observe("unfollow", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

func (h *Handlers) AcceptFollow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	edge, err := h.follows.AcceptFollow(c.Request.Context(), c.Param("edge_id"), userID)
	h.observe("accept_follow", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, edge)
}

func (h *Handlers) RejectFollow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	err := h.follows.RejectFollow(c.Request.Context(), c.Param("edge_id"), userID)
	h.observe("reject_follow", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "follow request rejected"})
}

// GetPendingFollowRequests - incoming pending follow requests of the acting user
func (h *Handlers) GetPendingFollowRequests(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	edges, err := h.follows.PendingRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": edges})
}

func (h *Handlers) GetRelationships(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	rel, err := h.follows.ListRelationships(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}
