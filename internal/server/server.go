package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tomland123/keeper-bots-v2/internal/filler"
	"github.com/tomland123/keeper-bots-v2/internal/journal"
)

var log = logrus.WithField("component", "diag_server")

// Server 诊断 HTTP 服务：订单簿快照只读视图、节流统计与结局流水尾部。
// 纯观测面，与填单正确性解耦。
type Server struct {
	engine  *gin.Engine
	httpSrv *http.Server
	filler  *filler.Filler
	journal *journal.Journal // 可为 nil
}

// New 创建诊断服务
func New(f *filler.Filler, j *journal.Journal) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, filler: f, journal: j}

	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/snapshot", s.handleSnapshot)
	engine.GET("/throttle", s.handleThrottle)
	engine.GET("/journal", s.handleJournal)
	return s
}

// Start 在 addr 上启动服务（非阻塞）
func (s *Server) Start(addr string) {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.engine}
	go func() {
		log.WithField("addr", addr).Info("diagnostics server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("diagnostics server stopped")
		}
	}()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) {
	if s.httpSrv != nil {
		_ = s.httpSrv.Shutdown(ctx)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	snap, err := s.filler.Snapshot(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleThrottle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": s.filler.ThrottleSize()})
}

func (s *Server) handleJournal(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []any{}})
		return
	}
	entries, err := s.journal.Tail(100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
