package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"adminservice/internal/domain/deploy"
	"adminservice/internal/domain/offboard"
	"adminservice/internal/domain/report"
	"adminservice/internal/domain/tagsync"
)

type Handler struct {
	SyncSvc     tagsync.Service
	OffboardSvc offboard.Service
	DeploySvc   deploy.Service
	ReportSvc   report.Service
	Log         *zap.Logger
}

func New(
	syncSvc tagsync.Service,
	offboardSvc offboard.Service,
	deploySvc deploy.Service,
	reportSvc report.Service,
	log *zap.Logger,
) *Handler {
	return &Handler{
		SyncSvc:     syncSvc,
		OffboardSvc: offboardSvc,
		DeploySvc:   deploySvc,
		ReportSvc:   reportSvc,
		Log:         log,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
