package main

import (
	"net/http"
	"time"

	"ankahee-backend/config"
	"ankahee-backend/internal/api/confession"
	"ankahee-backend/internal/api/live"
	"ankahee-backend/internal/api/room"
	"ankahee-backend/internal/api/story"
	"ankahee-backend/internal/api/user"
	"ankahee-backend/internal/middleware"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/service"
	"ankahee-backend/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestTimeout 普通 REST 请求的超时，实时长连接不受限
const requestTimeout = 15 * time.Second

// Services 路由依赖的全部服务
type Services struct {
	Users       service.UserServiceInterface
	Confessions service.ConfessionServiceInterface
	Pulse       service.PulseServiceInterface
	Mood        service.MoodServiceInterface
	Rooms       service.RoomServiceInterface
	Stories     service.StoryServiceInterface
	Letters     service.LetterServiceInterface
}

// NewRouter 组装中间件和路由
func NewRouter(cfg config.Config, tokens *util.TokenIssuer, hub *realtime.Hub, s Services) *gin.Engine {
	errorMonitor := middleware.NewErrorMonitor()

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))
	r.Use(middleware.RecoveryMiddleware())

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
		"X-Request-ID",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		"X-Request-ID",
	}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"subscriptions": hub.Count(),
		})
	})

	authHandler := user.NewAuthHandler(s.Users)
	accountHandler := user.NewAccountHandler(s.Users)
	confessionHandler := confession.NewConfessionHandler(s.Confessions, s.Pulse, s.Mood)
	roomHandler := room.NewRoomHandler(s.Rooms)
	storyHandler := story.NewStoryHandler(s.Stories, s.Letters)
	liveHandler := live.NewLiveHandler(hub, s.Rooms, cfg.FrontendURL)

	authRequired := middleware.AuthMiddleware(tokens, s.Users)

	api := r.Group("/api")
	{
		// 实时订阅是长连接，不加请求超时
		api.GET("/realtime", authRequired, liveHandler.Stream)

		rest := api.Group("/", middleware.TimeoutMiddleware(requestTimeout))
		rest.POST("/signup", authHandler.Signup)
		rest.POST("/login", authHandler.Login)
		rest.GET("/verify-email", authHandler.VerifyEmail)

		authorized := rest.Group("/", authRequired)
		{
			authorized.POST("/logout", authHandler.Logout)
			authorized.GET("/me", accountHandler.Me)
			authorized.DELETE("/account", accountHandler.DeleteAccount)

			// 告白
			authorized.POST("/posts", confessionHandler.CreatePost)
			authorized.GET("/posts", confessionHandler.ListPosts)
			authorized.GET("/posts/:id", confessionHandler.GetPost)
			authorized.PUT("/posts/:id", confessionHandler.UpdatePost)
			authorized.DELETE("/posts/:id", confessionHandler.BurnPost)
			authorized.GET("/archive", confessionHandler.ListArchive)
			authorized.GET("/pulse", confessionHandler.Pulse)
			authorized.POST("/mood/suggest", confessionHandler.SuggestMood)

			// 评论
			authorized.GET("/posts/:id/comments", confessionHandler.ListComments)
			authorized.POST("/posts/:id/comments", confessionHandler.CreateComment)
			authorized.PUT("/comments/:id", confessionHandler.UpdateComment)
			authorized.DELETE("/comments/:id", confessionHandler.DeleteComment)

			// 反应、投票、虚空问题、收藏
			authorized.PUT("/posts/:id/reaction", confessionHandler.SetReaction)
			authorized.DELETE("/posts/:id/reaction", confessionHandler.RemoveReaction)
			authorized.POST("/polls/:id/votes", confessionHandler.Vote)
			authorized.POST("/posts/:id/void-answers", confessionHandler.AnswerVoid)
			authorized.GET("/posts/:id/void-answers", confessionHandler.VoidAnswers)
			authorized.POST("/posts/:id/bookmark", confessionHandler.Bookmark)
			authorized.DELETE("/posts/:id/bookmark", confessionHandler.RemoveBookmark)
			authorized.GET("/bookmarks", confessionHandler.ListBookmarks)

			// 聊天室
			authorized.POST("/rooms", roomHandler.CreateRoom)
			authorized.GET("/rooms", roomHandler.ListRooms)
			authorized.GET("/rooms/:id", roomHandler.GetRoom)
			authorized.POST("/rooms/:id/members", roomHandler.Join)
			authorized.DELETE("/rooms/:id/members", roomHandler.Leave)
			authorized.POST("/rooms/:id/messages", roomHandler.SendMessage)

			// 每日故事和信件
			authorized.GET("/story", storyHandler.Today)
			authorized.POST("/story/segments", storyHandler.AddSegment)
			authorized.POST("/letters", storyHandler.WriteLetter)
			authorized.GET("/letters", storyHandler.ListLetters)
		}
	}

	if cfg.Debug {
		r.GET("/debug/errors", func(c *gin.Context) {
			c.JSON(http.StatusOK, errorMonitor.Stats())
		})
		for _, route := range r.Routes() {
			util.Logger.Debug("路由",
				zap.String("method", route.Method),
				zap.String("path", route.Path),
				zap.String("handler", route.Handler))
		}
	}

	return r
}
