package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"fitsocial/api/middleware"
	"fitsocial/models"

	"github.com/gin-gonic/gin"
)

type CreateProfileRequest struct {
	Username       string `json:"username" binding:"required"`
	PrivateAccount bool   `json:"private_account"`
}

type PrivacyRequest struct {
	PrivateAccount *bool `json:"private_account" binding:"required"`
}

type CreateItemRequest struct {
	Title      string `json:"title" binding:"required"`
	TemplateID string `json:"template_id"`
}

type FilterRequest struct {
	ItemIDs []string `json:"item_ids" binding:"required"`
}

// CreateProfile - registers the profile of the acting user
func (h *Handlers) CreateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	profile, err := h.profiles.CreateProfile(c.Request.Context(), userID, req.Username, req.PrivateAccount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (h *Handlers) GetProfile(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	profile, err := h.profiles.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handlers) SetPrivacy(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req PrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := h.profiles.SetPrivacy(c.Request.Context(), userID, *req.PrivateAccount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"private_account": *req.PrivateAccount})
}

// CreateItem - records a workout template, workout or progress picture of the acting user
func (h *Handlers) CreateItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	item, err := h.content.CreateItem(c.Request.Context(), userID, models.ContentKind(c.Param("kind")), req.Title, req.TemplateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

type overlayFunc func(ctx context.Context, ownerID string, kind models.ContentKind, itemID string) error

// overlayHandler builds the hide/unhide/delete endpoints, which differ only in the service call.
func (h *Handlers) overlayHandler(operation string, apply overlayFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		start := time.Now()
		err := apply(c.Request.Context(), userID, models.ContentKind(c.Param("kind")), c.Param("item_id"))
		h.observe(operation, start, err)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item_id": c.Param("item_id"), "operation": operation})
	}
}

func (h *Handlers) HideItem() gin.HandlerFunc {
	return h.overlayHandler("hide_item", h.profiles.HideItem)
}

func (h *Handlers) UnhideItem() gin.HandlerFunc {
	return h.overlayHandler("unhide_item", h.profiles.UnhideItem)
}

func (h *Handlers) DeleteItem() gin.HandlerFunc {
	return h.overlayHandler("delete_item", h.profiles.DeleteItem)
}

// ListContent - owner's content of one kind as seen by the acting user
func (h *Handlers) ListContent(c *gin.Context) {
	viewerID, ok := currentUser(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}
	start := time.Now()
	items, err := h.content.ListContent(c.Request.Context(), viewerID, c.Param("id"), models.ContentKind(c.Param("kind")), limit)
	h.observe("list_content", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handlers) CanView(c *gin.Context) {
	viewerID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	visible, err := h.resolver.CanView(c.Request.Context(), viewerID, c.Param("id"), models.ContentKind(c.Param("kind")), c.Param("item_id"))
	h.observe("can_view", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	if visible {
		middleware.RecordVisibility(1, 0, h.serviceName)
	} else {
		middleware.RecordVisibility(0, 1, h.serviceName)
	}
	c.JSON(http.StatusOK, gin.H{"visible": visible})
}

// FilterVisible - batch visibility check of item ids of one owner and kind
func (h *Handlers) FilterVisible(c *gin.Context) {
	viewerID, ok := currentUser(c)
	if !ok {
		return
	}
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	start := time.Now()
	visible, err := h.resolver.FilterVisible(c.Request.Context(), viewerID, c.Param("id"), models.ContentKind(c.Param("kind")), req.ItemIDs)
	h.observe("filter_visible", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.RecordVisibility(len(visible), len(req.ItemIDs)-len(visible), h.serviceName)
	c.JSON(http.StatusOK, gin.H{"visible": visible})
}

func (h *Handlers) ResolveRelationship(c *gin.Context) {
	viewerID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	verdict, err := h.resolver.ResolveRelationship(c.Request.Context(), viewerID, c.Param("id"))
	h.observe("resolve_relationship", start, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}
