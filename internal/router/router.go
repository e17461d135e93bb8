package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/lentera-backend/internal/config"
	"github.com/stemsi/lentera-backend/internal/handler"
	"github.com/stemsi/lentera-backend/internal/middleware"
	"github.com/stemsi/lentera-backend/internal/response"
	"github.com/stemsi/lentera-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	StudentMgmt   *handler.StudentManagementHandler
	Course        *handler.CourseHandler
	Assignment    *handler.AssignmentHandler
	Discussion    *handler.DiscussionHandler
	Media         *handler.MediaHandler
	WS            *handler.WSHandler
	Setting       *handler.SettingHandler
	Dashboard     *handler.DashboardHandler
	Monitor       *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve uploaded media files statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", "./uploads")
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/settings", handlers.Setting.GetPublicSettings)
	}

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	loginLimiter := middleware.NewRateLimiter(30, time.Minute)
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/student/login", loginLimiter.Middleware(), handlers.Auth.StudentLogin)
		auth.POST("/instructor/login", loginLimiter.Middleware(), handlers.Auth.InstructorLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.GET("/instructor/me", middleware.RequireInstructorJWT(authService), handlers.Auth.GetInstructorProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/courses", handlers.StudentPortal.ListCourses)
		studentAPI.GET("/courses/:course_id/assignments", handlers.StudentPortal.ListCourseAssignments)
		studentAPI.GET("/courses/:course_id/videos", handlers.StudentPortal.ListCourseVideos)

		studentAPI.GET("/courses/:course_id/discussions", handlers.Discussion.List)
		studentAPI.POST("/courses/:course_id/discussions", handlers.Discussion.PostAsStudent)
		studentAPI.DELETE("/discussions/:discussion_id", handlers.Discussion.DeleteAsStudent)

		studentAPI.POST("/assignments/:assignment_id/session", handlers.StudentPortal.StartSession)
		studentAPI.GET("/assignments/:assignment_id/paper", handlers.StudentPortal.GetAssignmentPaper)

		studentAPI.GET("/sessions/:session_id", handlers.StudentPortal.GetSession)
		studentAPI.POST("/sessions/:session_id/heartbeat", handlers.StudentPortal.Heartbeat)
		studentAPI.POST("/sessions/:session_id/submit", handlers.StudentPortal.SubmitSession)
		studentAPI.PUT("/sessions/:session_id/answers/:item_number", handlers.StudentPortal.SaveAnswer)
		studentAPI.DELETE("/sessions/:session_id/answers/:item_number", handlers.StudentPortal.DeleteAnswer)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Instructor Group (JWT) ─────────────────────────────────────
	instructorAPI := router.Group("/api/v1/instructor")
	instructorAPI.Use(middleware.RequireInstructorJWT(authService))
	{
		// Media upload
		instructorAPI.POST("/media/upload", handlers.Media.UploadMedia)

		// Course management
		instructorAPI.GET("/courses", handlers.Course.List)
		instructorAPI.POST("/courses", handlers.Course.Create)
		instructorAPI.GET("/courses/:course_id", handlers.Course.Get)
		instructorAPI.PUT("/courses/:course_id", handlers.Course.Update)
		instructorAPI.DELETE("/courses/:course_id", handlers.Course.Delete)

		// Course videos
		instructorAPI.GET("/courses/:course_id/videos", handlers.Course.ListVideos)
		instructorAPI.POST("/courses/:course_id/videos", handlers.Course.AddVideo)
		instructorAPI.PUT("/videos/:video_id", handlers.Course.UpdateVideo)
		instructorAPI.DELETE("/videos/:video_id", handlers.Course.DeleteVideo)

		// Enrollment
		instructorAPI.GET("/courses/:course_id/students", handlers.Course.ListStudents)
		instructorAPI.POST("/courses/:course_id/students/:student_id", handlers.Course.EnrollStudent)
		instructorAPI.DELETE("/courses/:course_id/students/:student_id", handlers.Course.UnenrollStudent)

		// Course assignments
		instructorAPI.GET("/assignments", handlers.Assignment.List)
		instructorAPI.POST("/assignments", handlers.Assignment.Create)
		instructorAPI.GET("/assignments/:assignment_id", handlers.Assignment.Get)
		instructorAPI.PUT("/assignments/:assignment_id", handlers.Assignment.Update)
		instructorAPI.DELETE("/assignments/:assignment_id", handlers.Assignment.Delete)
		instructorAPI.POST("/assignments/:assignment_id/publish", handlers.Assignment.Publish)
		instructorAPI.POST("/assignments/:assignment_id/grade", handlers.Assignment.MarkGraded)
		instructorAPI.GET("/assignments/:assignment_id/results", handlers.Assignment.GetResults)
		instructorAPI.GET("/assignments/:assignment_id/monitor", handlers.Monitor.MonitorAssignmentSSE)
		instructorAPI.PUT("/sessions/:session_id/score", handlers.Assignment.GradeSession)

		// Discussions (moderation)
		instructorAPI.GET("/courses/:course_id/discussions", handlers.Discussion.List)
		instructorAPI.POST("/courses/:course_id/discussions", handlers.Discussion.PostAsInstructor)
		instructorAPI.DELETE("/discussions/:discussion_id", handlers.Discussion.DeleteAsInstructor)

		// Student accounts
		instructorAPI.GET("/students", handlers.StudentMgmt.List)
		instructorAPI.POST("/students", handlers.StudentMgmt.Create)
		instructorAPI.GET("/students/:student_id", handlers.StudentMgmt.Get)
		instructorAPI.PUT("/students/:student_id", handlers.StudentMgmt.Update)
		instructorAPI.DELETE("/students/:student_id", handlers.StudentMgmt.Delete)
		instructorAPI.POST("/students/:student_id/reset-session", handlers.StudentMgmt.ResetSession)

		// Dashboard
		instructorAPI.GET("/dashboard", handlers.Dashboard.GetDashboard)

		// App Settings Routes
		settingsGroup := instructorAPI.Group("/settings")
		{
			settingsGroup.GET("", handlers.Setting.GetAllSettings)
			settingsGroup.PUT("", handlers.Setting.UpdateSettings)
		}
	}

	return router
}
