package deploy

import "context"

type Repository interface {
	// Upsert writes the marker and returns the stored row. created is true
	// when no marker existed under (path, name) before.
	Upsert(ctx context.Context, path, name, value string) (Marker, bool, error)
	// Get returns NOT_FOUND when the marker does not exist.
	Get(ctx context.Context, path, name string) (Marker, error)
	// ListByPath returns all markers at the path or anywhere below it,
	// ordered by path then name.
	ListByPath(ctx context.Context, path string) ([]Marker, error)
}
