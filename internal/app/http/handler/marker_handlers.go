package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminservice/internal/app/dto"
	"adminservice/internal/domain/deploy"
)

func (h *Handler) MarkerPut(c *gin.Context) {
	var body struct {
		Path  string `json:"path"`
		Name  string `json:"name"`
		Value string `json:"value"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid JSON")
		return
	}

	if body.Path == "" || body.Name == "" {
		h.badRequest(c, "path and name are required")
		return
	}

	marker, created, err := h.DeploySvc.EnsureMarker(c.Request.Context(), body.Path, body.Name, body.Value)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := struct {
		Marker  dto.Marker `json:"marker"`
		Created bool       `json:"created"`
	}{
		Marker:  markerDTO(marker),
		Created: created,
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *Handler) MarkersList(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		h.badRequest(c, "path is required")
		return
	}

	markers, err := h.DeploySvc.ListMarkers(c.Request.Context(), path)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := struct {
		Markers []dto.Marker `json:"markers"`
	}{
		Markers: make([]dto.Marker, 0, len(markers)),
	}
	for _, m := range markers {
		resp.Markers = append(resp.Markers, markerDTO(m))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) MarkerDetect(c *gin.Context) {
	var body struct {
		Path  string `json:"path"`
		Name  string `json:"name"`
		Value string `json:"value"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid JSON")
		return
	}

	if body.Path == "" || body.Name == "" {
		h.badRequest(c, "path and name are required")
		return
	}

	detected, err := h.DeploySvc.Detect(c.Request.Context(), body.Path, body.Name, body.Value)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DetectResponse{Detected: detected})
}

func markerDTO(m deploy.Marker) dto.Marker {
	return dto.Marker{
		Path:      m.Path,
		Name:      m.Name,
		Value:     m.Value,
		UpdatedAt: m.UpdatedAt,
	}
}
