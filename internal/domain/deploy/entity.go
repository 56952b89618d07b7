package deploy

import "time"

// Marker is one deployment marker: a named value under a slash-separated
// namespace path, e.g. path "software/acme/agent" name "version". Markers
// record which automation steps already ran on an environment.
type Marker struct {
	Path      string
	Name      string
	Value     string
	UpdatedAt time.Time
}
