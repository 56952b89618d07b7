package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"adminservice/internal/app/http/handler"
	"adminservice/internal/app/http/middleware"
)

func NewRouter(h *handler.Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		middleware.ZapLogger(log),
		middleware.ZapRecovery(log),
	)

	r.GET("/health", h.Health)

	r.POST("/sync/run", h.SyncRun)
	r.GET("/sync/runs", h.SyncRunsList)
	r.GET("/sync/runs/:id", h.SyncRunGet)

	r.POST("/offboard", h.OffboardRun)
	r.GET("/offboard/runs", h.OffboardRunsList)

	r.PUT("/markers", h.MarkerPut)
	r.GET("/markers", h.MarkersList)
	r.POST("/markers/detect", h.MarkerDetect)

	return r
}
