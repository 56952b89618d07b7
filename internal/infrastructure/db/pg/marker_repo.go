package pg

import (
	"context"
	"database/sql"
	"errors"

	"adminservice/internal/domain"
	"adminservice/internal/domain/deploy"
)

type MarkerRepository struct {
	db *sql.DB
}

func NewMarkerRepository(db *sql.DB) *MarkerRepository {
	return &MarkerRepository{db: db}
}

func (r *MarkerRepository) Upsert(ctx context.Context, path, name, value string) (deploy.Marker, bool, error) {
	m := deploy.Marker{Path: path, Name: name}
	var created bool
	err := queryRow(ctx, r.db,
		`INSERT INTO deployment_markers (path, name, value, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (path, name)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		 RETURNING value, updated_at, (xmax = 0)`,
		path, name, value,
	).Scan(&m.Value, &m.UpdatedAt, &created)
	if err != nil {
		return deploy.Marker{}, false, err
	}
	return m, created, nil
}

func (r *MarkerRepository) Get(ctx context.Context, path, name string) (deploy.Marker, error) {
	var m deploy.Marker
	err := queryRow(ctx, r.db,
		`SELECT path, name, value, updated_at
		   FROM deployment_markers
		  WHERE path = $1 AND name = $2`,
		path, name,
	).Scan(&m.Path, &m.Name, &m.Value, &m.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return deploy.Marker{}, &domain.DomainError{
			Code:       domain.ErrorCodeNotFound,
			Message:    "marker not found",
			HTTPStatus: 404,
		}
	}
	if err != nil {
		return deploy.Marker{}, err
	}
	return m, nil
}

func (r *MarkerRepository) ListByPath(ctx context.Context, path string) ([]deploy.Marker, error) {
	rows, err := query(ctx, r.db,
		`SELECT path, name, value, updated_at
		   FROM deployment_markers
		  WHERE path = $1 OR starts_with(path, $1 || '/')
		  ORDER BY path, name`,
		path,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markers []deploy.Marker
	for rows.Next() {
		var m deploy.Marker
		if err := rows.Scan(&m.Path, &m.Name, &m.Value, &m.UpdatedAt); err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return markers, nil
}
