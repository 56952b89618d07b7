package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminservice/internal/app/dto"
	"adminservice/internal/domain/offboard"
	"adminservice/internal/domain/report"
)

func (h *Handler) OffboardRun(c *gin.Context) {
	var body struct {
		UserID      string `json:"user_id"`
		WipeDevices bool   `json:"wipe_devices"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid JSON")
		return
	}

	if body.UserID == "" {
		h.badRequest(c, "user_id is required")
		return
	}

	run, err := h.OffboardSvc.Run(c.Request.Context(), body.UserID, offboard.Options{
		WipeDevices: body.WipeDevices,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := struct {
		Run dto.OffboardRun `json:"run"`
	}{
		Run: offboardRunDTO(run),
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) OffboardRunsList(c *gin.Context) {
	limit, ok := h.queryLimit(c)
	if !ok {
		return
	}

	runs, err := h.ReportSvc.ListOffboardRuns(c.Request.Context(), c.Query("user_id"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := struct {
		Runs []dto.OffboardRun `json:"runs"`
	}{
		Runs: make([]dto.OffboardRun, 0, len(runs)),
	}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, offboardRunDTO(r))
	}

	c.JSON(http.StatusOK, resp)
}

func offboardRunDTO(run report.OffboardRun) dto.OffboardRun {
	out := dto.OffboardRun{
		RunID:      run.ID,
		UserID:     run.UserID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Succeeded:  run.Succeeded,
		FatalCode:  run.FatalCode,
	}
	for _, s := range run.Steps {
		out.Steps = append(out.Steps, dto.StepResult{
			Step:   s.Step,
			Status: string(s.Status),
			Detail: s.Detail,
			Error:  s.Error,
		})
	}
	return out
}
