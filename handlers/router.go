package handlers

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rodroyale/middleware"
)

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Router wires every route under the configured prefix. Metrics are
// registered on reg and served from it.
func (h *Handler) Router(reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = h.cfg.MaxUploadBytes
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.NewMetrics(reg).Handler())
	r.Use(cors.New(corsConfig(h.cfg.CORSOrigins)))

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	required := middleware.AuthMiddleware(h.tokens, h.cache, h.store)
	optional := middleware.OptionalAuth(h.tokens, h.cache, h.store)
	limited := middleware.NewRateLimiter(h.cfg.AuthRateLimit, h.cfg.AuthRateBurst).Handler()

	api := r.Group(h.cfg.APIPrefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", limited, h.Register)
		authGroup.POST("/login", limited, h.Login)
		authGroup.POST("/refresh", limited, h.Refresh)
		authGroup.POST("/forgot-password", limited, h.ForgotPassword)
		authGroup.POST("/reset-password", limited, h.ResetPassword)
		authGroup.GET("/me", required, h.Me)
		authGroup.POST("/logout", required, h.Logout)
		authGroup.POST("/change-password", required, h.ChangePassword)
	}

	users := api.Group("/users")
	{
		users.GET("/search", h.SearchUsers)
		users.GET("/:id", h.GetUser)
		users.GET("/:id/followers", h.ListFollowers)
		users.GET("/:id/following", h.ListFollowing)
		users.PUT("/me", required, h.UpdateMe)
		users.DELETE("/me", required, h.DeleteMe)
		users.POST("/:id/follow", required, h.Follow)
		users.DELETE("/:id/follow", required, h.Unfollow)
		users.GET("/:id/catches", required, h.UserCatches)
	}

	catches := api.Group("/catches")
	{
		catches.GET("/:id", optional, h.GetCatch)
		catches.POST("/", required, h.CreateCatch)
		catches.POST("/upload-with-image", required, h.CreateCatchWithImage)
		catches.GET("/feed", required, h.Feed)
		catches.GET("/me", required, h.MyCatches)
		catches.PUT("/:id", required, h.UpdateCatch)
		catches.DELETE("/:id", required, h.DeleteCatch)
	}

	pins := api.Group("/pins")
	{
		pins.GET("/", optional, h.ListPins)
		pins.POST("/", required, h.CreatePin)
		pins.PUT("/:id", required, h.UpdatePin)
		pins.DELETE("/:id", required, h.DeletePin)
	}

	uploads := api.Group("/upload", required)
	{
		uploads.POST("/image", h.UploadImage)
		uploads.DELETE("/image/*object", h.DeleteImage)
		uploads.GET("/presign/*object", h.PresignImage)
	}

	board := api.Group("/leaderboard", required)
	{
		board.GET("/my-stats", h.MyStats)
		board.GET("/following-comparison", h.FollowingLeaderboard)
		board.GET("/global", h.GlobalLeaderboard)
		board.GET("/species/:species", h.SpeciesLeaderboard)
	}

	return r
}
