package deploy

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"adminservice/internal/domain"
)

type Service interface {
	// EnsureMarker writes the marker, creating or overwriting it. created
	// reports whether the marker was new.
	EnsureMarker(ctx context.Context, path, name, value string) (Marker, bool, error)
	GetMarker(ctx context.Context, path, name string) (Marker, error)
	ListMarkers(ctx context.Context, path string) ([]Marker, error)
	// Detect reports whether the marker exists with the expected value. An
	// empty expected value checks presence only. A missing marker is a
	// false result, not an error.
	Detect(ctx context.Context, path, name, value string) (bool, error)
}

type service struct {
	uow     domain.UnitOfWork
	markers Repository
	events  domain.EventBus
}

func NewService(uow domain.UnitOfWork, markers Repository, events domain.EventBus) Service {
	return &service{
		uow:     uow,
		markers: markers,
		events:  events,
	}
}

func (s *service) EnsureMarker(ctx context.Context, path, name, value string) (Marker, bool, error) {
	path, name, err := normalize(path, name)
	if err != nil {
		return Marker{}, false, err
	}

	var (
		stored  Marker
		created bool
	)
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		stored, created, err = s.markers.Upsert(ctx, path, name, value)
		if err != nil {
			return err
		}
		if s.events != nil {
			s.events.Publish(ctx, domain.Event{
				Type: "marker.ensured",
				Payload: map[string]any{
					"path":    stored.Path,
					"name":    stored.Name,
					"created": created,
				},
			})
		}
		return nil
	})
	if err != nil {
		return Marker{}, false, err
	}
	return stored, created, nil
}

func (s *service) GetMarker(ctx context.Context, path, name string) (Marker, error) {
	path, name, err := normalize(path, name)
	if err != nil {
		return Marker{}, err
	}
	return s.markers.Get(ctx, path, name)
}

func (s *service) ListMarkers(ctx context.Context, path string) ([]Marker, error) {
	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}
	return s.markers.ListByPath(ctx, path)
}

func (s *service) Detect(ctx context.Context, path, name, value string) (bool, error) {
	m, err := s.GetMarker(ctx, path, name)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && de.Code == domain.ErrorCodeNotFound {
			return false, nil
		}
		return false, err
	}
	if value == "" {
		return true, nil
	}
	return m.Value == value, nil
}

func normalize(path, name string) (string, string, error) {
	p, err := normalizePath(path)
	if err != nil {
		return "", "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", invalid("marker name must not be empty")
	}
	return p, name, nil
}

func normalizePath(path string) (string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "", invalid("marker path must not be empty")
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return "", invalid("marker path must not contain empty segments")
		}
	}
	return path, nil
}

func invalid(msg string) error {
	return &domain.DomainError{
		Code:       domain.ErrorCodeInvalidArgument,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}
