package api

import "github.com/zonewarden/server/internal/geometry"

// CreateZoneRequest is the request body for zone creation. The
// authenticated player pays the creation cost.
type CreateZoneRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=64"`
	Description string            `json:"description" validate:"max=512"`
	TeamID      string            `json:"team_id" validate:"required"`
	Center      geometry.Position `json:"center"`
}

// UpdateZoneRequest changes one mutable zone setting.
type UpdateZoneRequest struct {
	Field string `json:"field" validate:"required,oneof=description price"`
	Value string `json:"value"`
}

// DeletionStatusResponse reports the state of a pending deletion.
type DeletionStatusResponse struct {
	ZoneID  string `json:"zone_id"`
	Pending bool   `json:"pending"`
}
