package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/controllers"
	"github.com/cppla/weightloss/middleware"
	"github.com/cppla/weightloss/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDKey},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDKey},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Metrics())
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	posts := controllers.NewPostController(db)
	recipes := controllers.NewRecipeController(db)
	forum := controllers.NewForumController(db)
	vip := controllers.NewVIPController(db)
	nutrition := controllers.NewNutritionController(db)
	notifications := controllers.NewNotificationController(db)
	profile := controllers.NewProfileController(db)
	stats := controllers.NewStatsController(db)
	site := controllers.NewConfigController(db)
	admin := controllers.NewAdminController(db)
	challenges := controllers.NewChallengeController(db)

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuth())

	// Public reads
	api.GET("/config/notice", site.GetNotice)
	api.GET("/config/navigation", site.GetNavigation)
	api.GET("/stats", stats.GetStats)
	api.GET("/stats/page", stats.GetPageStats)

	api.GET("/blog/categories", posts.ListCategories)
	api.GET("/blog/posts", posts.ListPosts)
	api.GET("/blog/posts/:slug", posts.GetPost)

	api.GET("/recipes", recipes.ListRecipes)
	api.GET("/recipes/:slug", recipes.GetRecipe)

	api.GET("/forum/categories", forum.ListCategories)
	api.GET("/forum/categories/:slug/topics", forum.ListTopics)
	api.GET("/forum/topics/:slug", forum.GetTopic)

	api.GET("/challenges", challenges.ListChallenges)
	api.GET("/challenges/:slug", challenges.GetChallenge)

	api.POST("/nutrition/calculate", nutrition.Calculate)
	api.GET("/nutrition/food-categories", nutrition.ListFoodCategories)
	api.GET("/nutrition/foods", nutrition.ListFoods)

	api.GET("/users/:username", profile.GetByUsername)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimit())

	protected.GET("/profile", profile.Me)
	protected.PATCH("/profile", profile.Update)

	protected.GET("/blog/my-posts", posts.ListMyPosts)
	protected.POST("/blog/posts", posts.CreatePost)
	protected.PUT("/blog/posts/:id", posts.UpdatePost)
	protected.DELETE("/blog/posts/:id", posts.DeletePost)
	protected.POST("/blog/posts/:id/comments", posts.CreateComment)
	protected.DELETE("/blog/comments/:commentId", posts.DeleteComment)

	protected.GET("/my-recipes", recipes.ListMyRecipes)
	protected.POST("/recipes", recipes.CreateRecipe)
	protected.PUT("/recipes/:id", recipes.UpdateRecipe)
	protected.DELETE("/recipes/:id", recipes.DeleteRecipe)
	protected.POST("/recipes/:id/comments", recipes.CreateComment)
	protected.DELETE("/recipe-comments/:commentId", recipes.DeleteComment)

	protected.POST("/forum/topics", forum.CreateTopic)
	protected.DELETE("/forum/topics/:id", forum.DeleteTopic)
	protected.POST("/forum/topics/:id/posts", forum.Reply)
	protected.PUT("/forum/posts/:id", forum.UpdatePost)
	protected.DELETE("/forum/posts/:id", forum.DeletePost)
	protected.POST("/forum/posts/:id/solution", forum.MarkSolution)

	protected.GET("/vip/status", vip.Status)
	members := protected.Group("/vip")
	members.Use(vip.RequireVIP())
	members.GET("/posts", vip.ListPosts)
	members.GET("/posts/:slug", vip.GetPost)
	members.POST("/posts/:id/comments", vip.CreateComment)
	members.DELETE("/comments/:commentId", vip.DeleteComment)

	protected.GET("/nutrition/goal", nutrition.GetGoal)
	protected.PUT("/nutrition/goal", nutrition.PutGoal)
	protected.POST("/nutrition/foods", nutrition.CreateFood)
	protected.DELETE("/nutrition/foods/:id", nutrition.DeleteFood)
	protected.GET("/nutrition/meal-plans", nutrition.ListMealPlans)
	protected.POST("/nutrition/meal-plans", nutrition.CreateMealPlan)
	protected.GET("/nutrition/meal-plans/:id", nutrition.GetMealPlan)
	protected.DELETE("/nutrition/meal-plans/:id", nutrition.DeleteMealPlan)
	protected.POST("/nutrition/meal-plans/:id/meals", nutrition.AddMeal)
	protected.DELETE("/nutrition/meals/:id", nutrition.DeleteMeal)
	protected.POST("/nutrition/meals/:id/items", nutrition.AddMealItem)
	protected.PUT("/nutrition/meal-items/:id", nutrition.UpdateMealItem)
	protected.DELETE("/nutrition/meal-items/:id", nutrition.DeleteMealItem)

	protected.GET("/notifications", notifications.List)
	protected.POST("/notifications/:id/read", notifications.MarkRead)
	protected.POST("/notifications/read-all", notifications.MarkAllRead)

	staff := protected.Group("/admin")
	staff.Use(middleware.AdminRequired())
	staff.PATCH("/blog/posts/:id/status", posts.SetStatus)
	staff.POST("/blog/categories", admin.CreateBlogCategory)
	staff.GET("/recipes/pending", recipes.ListPending)
	staff.PATCH("/recipes/:id/moderation", recipes.Moderate)
	staff.POST("/forum/categories", admin.CreateForumCategory)
	staff.PATCH("/forum/topics/:id", forum.Moderate)
	staff.POST("/food-categories", admin.CreateFoodCategory)
	staff.POST("/vip/posts", vip.CreatePost)
	staff.PUT("/vip/posts/:id", vip.UpdatePost)
	staff.DELETE("/vip/posts/:id", vip.DeletePost)
	staff.POST("/challenges", challenges.CreateChallenge)
	staff.PUT("/challenges/:id", challenges.UpdateChallenge)
	staff.PATCH("/users/:id/vip", admin.GrantVIP)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
