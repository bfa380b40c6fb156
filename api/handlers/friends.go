package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type friendRequestBody struct {
	ReceiverID string `json:"receiver_id" binding:"required"`
}

// SendFriendRequest - sends a friend request from the acting user
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req friendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	start := time.Now()
	request, err := h.friends.SendRequest(c.Request.Context(), userID, req.ReceiverID)
	h.observe("send_friend_request", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// AcceptFriendRequest - accepts a pending request addressed to the acting user
func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	friendship, err := h.friends.AcceptRequest(c.Request.Context(), c.Param("request_id"), userID)
	h.observe("accept_friend_request", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friendship approved", "friendship": friendship})
}

func (h *Handlers) RejectFriendRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	err := h.friends.RejectRequest(c.Request.Context(), c.Param("request_id"), userID)
	h.observe("reject_friend_request", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend request rejected"})
}

// DeleteFriend - ends the friendship between the acting user and :id
func (h *Handlers) DeleteFriend(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	err := h.friends.RemoveFriendship(c.Request.Context(), userID, c.Param("id"))
	h.observe("remove_friendship", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend deleted"})
}

func (h *Handlers) GetFriends(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	friends, err := h.friends.ListFriends(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// GetPendingFriendRequests - incoming pending requests of the acting user
func (h *Handlers) GetPendingFriendRequests(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	requests, err := h.friends.PendingRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ReconcileFriendships - repairs friendships missing behind accepted requests (admin endpoint)
func (h *Handlers) ReconcileFriendships(c *gin.Context) {
	start := time.Now()
	repaired, err := h.friends.ReconcileFriendships(c.Request.Context())
	h.observe("reconcile_friendships", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repaired": repaired})
}
