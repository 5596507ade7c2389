package route

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lam0glia/marketplace-relay/http/handler"
	"github.com/lam0glia/marketplace-relay/zlog"
)

func adminRouter(r gin.IRouter, h *handler.Handler, gatherer prometheus.Gatherer) {
	r.GET("/health", h.Health.Live)
	r.GET("/status", h.Health.Status)
	r.POST("/order-status", h.Order.PushStatus)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	level := gin.WrapF(zlog.LevelHTTPHandler())
	r.GET("/log/level", level)
	r.PUT("/log/level", level)
}
