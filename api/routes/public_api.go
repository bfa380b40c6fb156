package routes

import (
	"net/http"
	"time"

	"fitsocial/api/handlers"
	"fitsocial/api/middleware"
	"fitsocial/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the engine with its ambient middleware and every route.
func NewRouter(h *handlers.Handlers, conf *config.ConfigSchema) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Length", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(middleware.PrometheusMiddleware(conf.Backend.ServiceName))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.AuthMiddleware(conf.Auth.JWTSecret, conf.Auth.AllowHeaderIdentity)
	PublicApi(router, h, auth)
	AdminApi(router, h, auth, middleware.RequireAdmin(conf.Auth.AdminUsers))
	return router
}

func PublicApi(router *gin.Engine, h *handlers.Handlers, auth gin.HandlerFunc) *gin.RouterGroup {
	publicEndpoints := router.Group("/api/v1/", auth)
	{
		// profiles and privacy
		publicEndpoints.POST("profiles", h.CreateProfile)
		publicEndpoints.GET("profiles/:id", h.GetProfile)
		publicEndpoints.PUT("profiles/me/privacy", h.SetPrivacy)

		// content and overlays
		publicEndpoints.POST("content/:kind", h.CreateItem)
		publicEndpoints.POST("content/:kind/:item_id/hide", h.HideItem())
		publicEndpoints.POST("content/:kind/:item_id/unhide", h.UnhideItem())
		publicEndpoints.POST("content/:kind/:item_id/delete", h.DeleteItem())
		publicEndpoints.GET("users/:id/content/:kind", h.ListContent)
		publicEndpoints.GET("users/:id/content/:kind/:item_id/visible", h.CanView)
		publicEndpoints.POST("users/:id/content/:kind/filter", h.FilterVisible)
		publicEndpoints.GET("users/:id/relationship", h.ResolveRelationship)

		// follows
		publicEndpoints.POST("follows/:id", h.Follow)
		publicEndpoints.DELETE("follows/:id", h.Unfollow)
		publicEndpoints.GET("follows/requests", h.GetPendingFollowRequests)
		publicEndpoints.POST("follows/requests/:edge_id/accept", h.AcceptFollow)
		publicEndpoints.POST("follows/requests/:edge_id/reject", h.RejectFollow)
		publicEndpoints.GET("users/:id/relationships", h.GetRelationships)

		// friends
		publicEndpoints.POST("friends/requests", h.SendFriendRequest)
		publicEndpoints.GET("friends/requests", h.GetPendingFriendRequests)
		publicEndpoints.POST("friends/requests/:request_id/accept", h.AcceptFriendRequest)
		publicEndpoints.POST("friends/requests/:request_id/reject", h.RejectFriendRequest)
		publicEndpoints.DELETE("friends/:id", h.DeleteFriend)
		publicEndpoints.GET("users/:id/friends", h.GetFriends)

		// posts, feed, notifications
		publicEndpoints.POST("posts", h.CreatePost)
		publicEndpoints.DELETE("posts/:post_id", h.DeletePost)
		publicEndpoints.GET("feed", h.GetFeed)
		publicEndpoints.GET("notifications/count", h.GetNotificationCount)
	}
	return publicEndpoints
}

// AdminApi - maintenance endpoints, limited to configured admin users
func AdminApi(router *gin.Engine, h *handlers.Handlers, auth, admin gin.HandlerFunc) *gin.RouterGroup {
	adminEndpoints := router.Group("/api/v1/admin/", auth, admin)
	{
		adminEndpoints.POST("friendships/reconcile", h.ReconcileFriendships)
	}
	return adminEndpoints
}
