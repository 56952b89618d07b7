package dto

import "time"

type Marker struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DetectResponse struct {
	Detected bool `json:"detected"`
}
