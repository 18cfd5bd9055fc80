package router

import (
	"net/http"
	"time"

	"ledger/api"
	"ledger/charts"
	"ledger/config"
	_ "ledger/docs"
	"ledger/middleware"
	"ledger/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// 登录限流：每个 IP 每分钟最多 10 次
const (
	loginMaxAttempts = 10
	loginWindow      = time.Minute
)

// Deps 路由依赖
type Deps struct {
	Ledger   *service.Ledger
	Auth     *service.AuthService
	Registry *prometheus.Registry
	// UploadDir 本地图片目录，非空时挂载到 /uploads
	UploadDir string
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r.Use(middleware.NewHTTPMetrics(reg).Handler())

	// CORS 中间件
	r.Use(CORSMiddleware())

	if deps.UploadDir != "" {
		uploads := r.Group("/uploads", func(c *gin.Context) {
			c.Header("X-Content-Type-Options", "nosniff")
		})
		uploads.Static("/", deps.UploadDir)
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(deps.Auth, cfg.JWT.ExpireTime)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", middleware.LoginRateLimit(loginMaxAttempts, loginWindow), authHandler.Login)
			auth.POST("/check-email", authHandler.CheckEmail)
			auth.POST("/verify-password", middleware.LoginRateLimit(loginMaxAttempts, loginWindow), authHandler.VerifyPassword)
			auth.POST("/forgot-password", middleware.LoginRateLimit(loginMaxAttempts, loginWindow), authHandler.ForgotPassword)
			auth.POST("/reset-password", middleware.LoginRateLimit(loginMaxAttempts, loginWindow), authHandler.ResetPassword)
		}

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)
			authorized.POST("/auth/profile-picture", authHandler.UploadProfilePicture)
			authorized.DELETE("/auth/account", authHandler.DeleteAccount)

			// 消费记录相关，固定路径注册在 /:id 之前
			expenseHandler := api.NewExpenseHandler(deps.Ledger)
			analyticsHandler := api.NewAnalyticsHandler(deps.Ledger, charts.NewChartGenerator())
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/categories", expenseHandler.Categories)
				expenses.GET("/filter", expenseHandler.Filter)
				expenses.GET("/by-month-year", expenseHandler.ByMonthYear)
				expenses.GET("/by-year", expenseHandler.ByYear)
				expenses.GET("/by-date", expenseHandler.ByDate)
				expenses.GET("/monthly-summary", expenseHandler.MonthlySummary)
				expenses.GET("/compare-monthly", expenseHandler.CompareMonthly)

				stats := expenses.Group("/analytics")
				{
					stats.GET("/daily", analyticsHandler.Daily)
					stats.GET("/weekly", analyticsHandler.Weekly)
					stats.GET("/monthly", analyticsHandler.Monthly)
					stats.GET("/yearly", analyticsHandler.Yearly)
					stats.GET("/daily-category", analyticsHandler.DailyCategory)
					stats.GET("/weekly-category", analyticsHandler.WeeklyCategory)
					stats.GET("/monthly-category", analyticsHandler.MonthlyCategory)
					stats.GET("/yearly-category", analyticsHandler.YearlyCategory)
					stats.GET("/monthly/chart", analyticsHandler.MonthlyChart)
					stats.GET("/category/chart", analyticsHandler.CategoryChart)
				}

				expenses.GET("/:id", expenseHandler.Get)
				expenses.PATCH("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			// 预算
			budgetHandler := api.NewBudgetHandler(deps.Ledger)
			authorized.POST("/budget", budgetHandler.Set)
			authorized.GET("/budget/status", budgetHandler.Status)

			// 储蓄
			savingHandler := api.NewSavingHandler(deps.Ledger)
			savings := authorized.Group("/savings")
			{
				savings.PATCH("", savingHandler.Upsert)
				savings.GET("", savingHandler.List)
				savings.GET("/by-month-year", savingHandler.ByMonthYear)
			}

			// 导出相关
			exportHandler := api.NewExportHandler(deps.Ledger)
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-Request-ID, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
