package ports

import "context"

type StatusChange struct {
	EquipmentID uint64 `json:"equipment_id"`
	Tag         string `json:"tag"`
	From        string `json:"from"`
	To          string `json:"to"`
	Action      string `json:"action"`
	Actor       string `json:"actor"`
	At          string `json:"at"`
}

// StatusPublisher fans out committed equipment status changes.
type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, change StatusChange) error
}
