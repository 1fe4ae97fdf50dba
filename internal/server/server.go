package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "storyreel/docs"
	"storyreel/internal/app"
	"storyreel/internal/config"
	"storyreel/internal/handler"
	authHandler "storyreel/internal/handler/auth"
	videoHandler "storyreel/internal/handler/video"
	"storyreel/internal/pkg/jwt"
	"storyreel/internal/server/middleware"
	"storyreel/internal/service"
)

// Server HTTP 服务器
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	app        *app.App
	dispatcher service.Dispatcher
}

// New 创建服务器实例
func New(cfg *config.Config, a *app.App, dispatcher service.Dispatcher) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &Server{
		cfg:        cfg,
		engine:     gin.New(),
		app:        a,
		dispatcher: dispatcher,
	}
	srv.setupRoutes()
	return srv, nil
}

func (s *Server) readiness() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{}
	if s.app.Mongo != nil {
		checks["mongo"] = s.app.Mongo
	}
	if s.app.MySQL != nil {
		checks["mysql"] = s.app.MySQL
	}
	if s.app.Redis != nil {
		checks["redis"] = s.app.Redis
	}
	return checks
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.readiness())
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地存储的成片以静态目录方式暴露
	if local := s.cfg.Storage.Local; s.cfg.Storage.Type == "local" && local != nil && local.BasePath != "" {
		s.engine.Static("/files", local.BasePath)
	}

	jwtSecret := s.cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "default-secret-key-change-in-production"
		log.Warn().Msg("JWT secret not configured, using default (NOT SECURE for production)")
	}
	accessTokenExpiry := s.cfg.Auth.AccessTokenExpiry
	if accessTokenExpiry == 0 {
		accessTokenExpiry = 24 * time.Hour
	}
	jwtUtil := jwt.NewJWT(jwtSecret, accessTokenExpiry)

	var regen service.ImageGenerator
	if s.app.ImageGen != nil {
		regen = s.app.ImageGen
	}
	taskSvc := service.NewTaskService(s.app.Tasks, s.app.Images, s.dispatcher, regen, s.app.Hub, s.cfg.Story.Languages)
	videoHdl := videoHandler.NewHandler(taskSvc, s.app.Hub)

	// API v1
	v1 := s.engine.Group("/api/v1")
	{
		authHdl := authHandler.NewHandler(jwtUtil, s.cfg.Auth.AdminUsername, s.cfg.Auth.AdminPasswordHash)
		v1.POST("/auth/token", authHdl.Token)
		v1.POST("/auth/refresh", authHdl.Refresh)

		protected := v1.Group("")
		if s.cfg.Auth.Enabled {
			protected.Use(middleware.Auth(jwtUtil))
		} else {
			log.Warn().Msg("auth disabled, video endpoints are public")
		}

		videos := protected.Group("/videos")
		{
			videos.POST("", videoHdl.CreateVideo)
			videos.GET("", videoHdl.ListVideos)
			videos.GET("/:task_id", videoHdl.GetVideo)
			videos.GET("/:task_id/ws", videoHdl.StreamVideo)
		}

		images := protected.Group("/images")
		{
			images.GET("/:image_id", videoHdl.GetImage)
			images.POST("/:image_id/regenerate", videoHdl.RegenerateImage)
			images.DELETE("/:image_id", videoHdl.DeleteImage)
		}
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if cerr := s.app.Close(context.Background()); cerr != nil {
			log.Error().Err(cerr).Msg("failed to close connections")
		}
		return err
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
