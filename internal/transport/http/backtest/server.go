package backtesthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fxlab/internal/backtest"
	"fxlab/internal/strategy"
)

// Server 提供回测相关的 HTTP API。
type Server struct {
	addr     string
	svc      *backtest.Service
	registry *strategy.Registry
	router   *gin.Engine
}

// Config 描述回测 HTTP Server 的依赖。
type Config struct {
	Addr     string
	Svc      *backtest.Service
	Registry *strategy.Registry
}

// NewServer 构建回测 HTTP Server。
func NewServer(cfg Config) (*Server, error) {
	if cfg.Svc == nil {
		return nil, errors.New("service 不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9991"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:     cfg.Addr,
		svc:      cfg.Svc,
		registry: cfg.Registry,
		router:   router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api/backtest")
	api.GET("/strategies", s.handleStrategies)
	api.GET("/timeframes", s.handleTimeframes)
	api.POST("/runs", s.handleRunStart)
	api.GET("/runs", s.handleRunList)
	api.GET("/runs/:id", s.handleRunDetail)
	api.GET("/runs/:id/trades", s.handleRunTrades)
	api.GET("/runs/:id/stats", s.handleRunStats)
}

func (s *Server) handleStrategies(c *gin.Context) {
	if s.registry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "策略注册表未启用"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategies": s.registry.Names()})
}

func (s *Server) handleTimeframes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"timeframes": backtest.SupportedTimeframes()})
}

func (s *Server) handleRunStart(c *gin.Context) {
	var req backtest.Config
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := s.svc.StartRun(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

func (s *Server) handleRunList(c *gin.Context) {
	runs := s.svc.Registry().List()
	// 列表里不带完整交易明细，详情接口再取
	for i := range runs {
		runs[i].Results = nil
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	run, ok := s.svc.Registry().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleRunTrades(c *gin.Context) {
	run, ok := s.svc.Registry().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if run.Results == nil {
		c.JSON(http.StatusOK, gin.H{"status": run.Status, "trades": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": run.Status, "trades": run.Results.Trades})
}

func (s *Server) handleRunStats(c *gin.Context) {
	run, ok := s.svc.Registry().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if run.Results == nil {
		c.JSON(http.StatusOK, gin.H{"status": run.Status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": run.Status, "stats": run.Results.Stats})
}

// Handler 暴露路由，供测试直接挂到 httptest。
func (s *Server) Handler() http.Handler { return s.router }

// Start 启动 HTTP 服务，阻塞直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
