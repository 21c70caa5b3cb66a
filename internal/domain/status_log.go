package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityType names the kinds of records that keep a status log
type EntityType string

const (
	EntityASN          EntityType = "asn"
	EntityDN           EntityType = "dn"
	EntitySortingTask  EntityType = "sorting_task"
	EntityPickingTask  EntityType = "picking_task"
	EntityPackingTask  EntityType = "packing_task"
	EntityDeliveryTask EntityType = "delivery_task"
)

// StatusLog is one append-only row of a status audit trail
type StatusLog struct {
	ID         string     `bson:"_id" json:"id"`
	EntityType EntityType `bson:"entityType" json:"entityType"`
	EntityID   string     `bson:"entityId" json:"entityId"`
	FromStatus string     `bson:"fromStatus" json:"fromStatus"`
	ToStatus   string     `bson:"toStatus" json:"toStatus"`
	OperatorID string     `bson:"operatorId" json:"operatorId"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
}

// NewStatusLogFromEvent builds the log row for a status change
func NewStatusLogFromEvent(e *StatusChangedEvent) *StatusLog {
	return &StatusLog{
		ID:         uuid.New().String(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		OperatorID: e.OperatorID,
		CreatedAt:  e.ChangedAt,
	}
}
