package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"adminservice/internal/app/dto"
	"adminservice/internal/domain/report"
)

func (h *Handler) SyncRun(c *gin.Context) {
	run, err := h.SyncSvc.SyncAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := struct {
		Run dto.SyncRun `json:"run"`
	}{
		Run: syncRunDTO(run),
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) SyncRunsList(c *gin.Context) {
	limit, ok := h.queryLimit(c)
	if !ok {
		return
	}

	runs, err := h.ReportSvc.ListSyncRuns(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := struct {
		Runs []dto.SyncRun `json:"runs"`
	}{
		Runs: make([]dto.SyncRun, 0, len(runs)),
	}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, syncRunDTO(r))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) SyncRunGet(c *gin.Context) {
	run, err := h.ReportSvc.GetSyncRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := struct {
		Run dto.SyncRun `json:"run"`
	}{
		Run: syncRunDTO(run),
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		h.badRequest(c, "limit must be a non-negative integer")
		return 0, false
	}

	return n, true
}

func syncRunDTO(run report.SyncRun) dto.SyncRun {
	out := dto.SyncRun{
		RunID:       run.ID,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		TeamsTotal:  run.TeamsTotal,
		TeamsFailed: run.TeamsFailed,
	}
	for _, t := range run.Teams {
		out.Teams = append(out.Teams, teamResultDTO(t))
	}
	return out
}

func teamResultDTO(t report.TeamSyncResult) dto.TeamSyncResult {
	return dto.TeamSyncResult{
		TeamID:         t.TeamID,
		TeamName:       t.TeamName,
		TagID:          t.TagID,
		CreatedTag:     t.CreatedTag,
		RecoveredTag:   t.RecoveredTag,
		Added:          append([]string(nil), t.Added...),
		Removed:        append([]string(nil), t.Removed...),
		AddFailures:    itemFailuresDTO(t.AddFailures),
		RemoveFailures: itemFailuresDTO(t.RemoveFailures),
		FatalCode:      t.FatalCode,
		FatalMessage:   t.FatalMessage,
	}
}

func itemFailuresDTO(in []report.ItemFailure) []dto.ItemFailure {
	if len(in) == 0 {
		return nil
	}
	out := make([]dto.ItemFailure, 0, len(in))
	for _, f := range in {
		out = append(out, dto.ItemFailure{MemberID: f.MemberID, Reason: f.Reason})
	}
	return out
}
