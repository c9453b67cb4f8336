// Package api 暴露 HTTP 接口：GET /api/hukamnama 与 GET /healthz。
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/John-Robertt/hukam/internal/domain"
)

const HeaderRequestID = "X-Request-ID"

// Retriever 是 handler 依赖的最小检索能力（生产实现是 *retrieve.Service）。
type Retriever interface {
	Retrieve(ctx context.Context) domain.Response
}

type Handler struct {
	Retriever Retriever
}

func NewHandler(r Retriever) *Handler {
	return &Handler{Retriever: r}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/hukamnama", h.hukamnama) // GET /api/hukamnama
}

// hukamnama 两种响应形态都返回 200：降级内容同样可直接渲染，由 success 字段区分。
func (h *Handler) hukamnama(c *gin.Context) {
	resp := h.Retriever.Retrieve(c.Request.Context())
	c.Header("Cache-Control", "no-store")
	if resp.RequestID != "" {
		c.Header(HeaderRequestID, resp.RequestID)
	}
	if resp.ErrorCode != "" {
		c.Set("error_code", resp.ErrorCode)
	}
	c.JSON(http.StatusOK, resp)
}

// NewRouter 组装 gin engine：recovery + zap 访问日志 + 路由。
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), AccessLog(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.RegisterRoutes(router.Group("/api"))
	return router
}

// AccessLog 用 zap 输出每个请求一行访问日志。
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := c.Writer.Header().Get(HeaderRequestID); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if code := c.GetString("error_code"); code != "" {
			fields = append(fields, zap.String("error_code", code))
		}
		logger.Info("http request", fields...)
	}
}
