package route

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/bootstrap"
	"github.com/lam0glia/marketplace-relay/http/handler"
	"github.com/lam0glia/marketplace-relay/http/middleware"
	"github.com/lam0glia/marketplace-relay/zlog"
)

func Setup(
	handler *handler.Handler,
	envName string,
	logger *zap.Logger,
	gatherer prometheus.Gatherer,
) *gin.Engine {
	if envName == bootstrap.ProductionEnvironmentName {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	eng := gin.New()

	eng.SetTrustedProxies(nil)

	eng.Use(gin.Recovery(), middleware.RequestID, zlog.GinLogger(logger))

	adminRouter(eng, handler, gatherer)
	relayRouter(eng, handler.WebSocket)

	return eng
}
