package handlers

import (
	"net/http"
	"time"

	"fitsocial/api/middleware"
	"fitsocial/logger"
	"fitsocial/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers - HTTP handlers of the relationship and visibility engine
type Handlers struct {
	profiles    *services.ProfileService
	follows     *services.FollowService
	friends     *services.FriendService
	resolver    *services.Resolver
	content     *services.ContentService
	feed        *services.FeedService
	serviceName string
}

type Services struct {
	Profiles *services.ProfileService
	Follows  *services.FollowService
	Friends  *services.FriendService
	Resolver *services.Resolver
	Content  *services.ContentService
	Feed     *services.FeedService
}

func NewHandlers(svc Services, serviceName string) *Handlers {
	return &Handlers{
		profiles:    svc.Profiles,
		follows:     svc.Follows,
		friends:     svc.Friends,
		resolver:    svc.Resolver,
		content:     svc.Content,
		feed:        svc.Feed,
		serviceName: serviceName,
	}
}

var statusByKind = map[services.ErrorKind]int{
	services.KindValidation:    http.StatusBadRequest,
	services.KindForbidden:     http.StatusForbidden,
	services.KindNotFound:      http.StatusNotFound,
	services.KindConflict:      http.StatusConflict,
	services.KindStore:         http.StatusServiceUnavailable,
	services.KindInconsistency: http.StatusInternalServerError,
	services.KindInternal:      http.StatusInternalServerError,
}

// respondError writes the error category as status and body.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		if kind == services.KindInternal {
			c.JSON(status, gin.H{"error": "internal error", "kind": kind})
			return
		}
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func (h *Handlers) observe(operation string, start time.Time, err error) {
	middleware.RecordRelationOperation(operation, string(services.KindOf(err)), h.serviceName, time.Since(start))
}

func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
