package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"boards-backend/internal/adapter/gin/handler"
	"boards-backend/internal/adapter/gin/middleware"
	"boards-backend/internal/config"
)

// Handlers bundles every HTTP handler the router wires up.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Accounts      *handler.AccountHandler
	Boards        *handler.BoardHandler
	Cards         *handler.CardHandler
	Comments      *handler.CommentHandler
	Invites       *handler.InviteHandler
	Notifications *handler.NotificationHandler
	Previews      *handler.PreviewsHandler
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(
	h Handlers,
	auth *middleware.Auth,
	redisClient *redis.Client,
	cfg *config.Config,
	openAPIPath string,
	log *zap.Logger,
) *gin.Engine {
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.App.CORSOriginWhitelist, cfg.App.Debug))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "boards-api",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if openAPIPath != "" {
		router.GET("/swagger/doc.json", func(c *gin.Context) {
			c.File(openAPIPath)
		})
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		)))
	}

	v1 := router.Group("/api/" + cfg.App.APIVersion)
	{
		authGroup := v1.Group("/auth")
		if cfg.RateLimit.Enabled {
			authGroup.Use(middleware.RateLimiter(redisClient, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log))
		}
		{
			authGroup.POST("/signup", h.Auth.Signup)
			authGroup.POST("/signin", h.Auth.Signin)
			authGroup.POST("/username/validate", h.Auth.ValidateUsername)
			authGroup.POST("/forgot_password", h.Auth.ForgotPassword)
			authGroup.POST("/reset_password", h.Auth.ResetPassword)
		}

		me := v1.Group("/users/me", auth.Required())
		{
			me.GET("", h.Users.GetMe)
			me.PUT("", h.Users.UpdateMe)
			me.PUT("/password", h.Users.ChangePassword)
		}

		accounts := v1.Group("/accounts")
		{
			accounts.GET("", auth.Required(), h.Accounts.List)
			accounts.GET("/:slug", auth.Optional(), h.Accounts.GetBySlug)
		}

		signupRequests := v1.Group("/signup_requests")
		{
			signupRequests.POST("", h.Invites.RequestSignup)
			signupRequests.POST("/validate", h.Invites.ValidateSignupToken)
		}

		invitations := v1.Group("/invitations")
		{
			invitations.POST("/accept", auth.Required(), h.Invites.Accept)
			invitations.POST("/reject", h.Invites.Reject)
		}

		boards := v1.Group("/boards")
		{
			boards.GET("", auth.Optional(), h.Boards.List)
			boards.POST("", auth.Required(), h.Boards.Create)
			boards.GET("/:id", auth.Optional(), h.Boards.Get)
			boards.PUT("/:id", auth.Required(), h.Boards.Update)
			boards.DELETE("/:id", auth.Required(), h.Boards.Delete)
			boards.POST("/:id/clone", auth.Required(), h.Boards.Clone)

			boards.GET("/:id/collaborators", auth.Required(), h.Boards.ListCollaborators)
			boards.POST("/:id/collaborators", auth.Required(), h.Boards.AddCollaborator)
			boards.PUT("/:id/collaborators/:collaborator_id", auth.Required(), h.Boards.UpdateCollaborator)
			boards.DELETE("/:id/collaborators/:collaborator_id", auth.Required(), h.Boards.RemoveCollaborator)

			boards.POST("/:id/requests", auth.Optional(), h.Boards.RequestAccess)
		}

		requests := v1.Group("/requests", auth.Required())
		{
			requests.PUT("/:id/accept", h.Boards.AcceptRequest)
			requests.PUT("/:id/reject", h.Boards.RejectRequest)
		}

		cards := v1.Group("/cards")
		{
			cards.GET("", auth.Optional(), h.Cards.List)
			cards.POST("", auth.Required(), h.Cards.Create)
			cards.GET("/:id", auth.Optional(), h.Cards.Get)
			cards.PUT("/:id", auth.Required(), h.Cards.Update)
			cards.DELETE("/:id", auth.Required(), h.Cards.Delete)
			cards.PUT("/:id/featured", auth.Required(), h.Cards.SetFeatured)
			cards.GET("/:id/cards", auth.Optional(), h.Cards.ListStackMembers)
			cards.GET("/:id/download", auth.Optional(), h.Cards.Download)

			cards.GET("/:id/comments", auth.Optional(), h.Comments.ListForCard)
			cards.POST("/:id/comments", auth.Required(), h.Comments.CreateForCard)
		}

		v1.POST("/files/sign", auth.Required(), h.Cards.SignUpload)

		comments := v1.Group("/comments", auth.Required())
		{
			comments.PUT("/:id", h.Comments.Update)
			comments.DELETE("/:id", h.Comments.Delete)
		}

		notifications := v1.Group("/notifications", auth.Required())
		{
			notifications.GET("", h.Notifications.List)
			notifications.PUT("/read", h.Notifications.MarkAllRead)
			notifications.PUT("/:id/read", h.Notifications.MarkRead)
		}

		// The previews service authenticates with an HMAC signature,
		// not a user token.
		v1.POST("/previews/callback", h.Previews.Callback)
	}

	return router
}
