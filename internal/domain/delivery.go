package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus represents the status of a delivery task
type DeliveryStatus string

const (
	DeliveryStatusPending    DeliveryStatus = "pending"
	DeliveryStatusInProgress DeliveryStatus = "in_progress"
	DeliveryStatusCompleted  DeliveryStatus = "completed"
	DeliveryStatusSigned     DeliveryStatus = "signed"
)

var deliveryTransitions = map[DeliveryStatus]DeliveryStatus{
	DeliveryStatusPending:    DeliveryStatusInProgress,
	DeliveryStatusInProgress: DeliveryStatusCompleted,
	DeliveryStatusCompleted:  DeliveryStatusSigned,
}

// CanTransitionTo reports whether the move to target is allowed
func (s DeliveryStatus) CanTransitionTo(target DeliveryStatus) bool {
	next, ok := deliveryTransitions[s]
	return ok && next == target
}

// IsFinished reports whether the goods have been handed over
func (s DeliveryStatus) IsFinished() bool {
	return s == DeliveryStatusCompleted || s == DeliveryStatusSigned
}

// ShippingInfo is the carrier side of a delivery
type ShippingInfo struct {
	CarrierID       string `bson:"carrierId,omitempty" json:"carrierId,omitempty"`
	TrackingNumber  string `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	RecipientID     string `bson:"recipientId,omitempty" json:"recipientId,omitempty"`
	ShippingAddress string `bson:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
}

// DeliveryTask hands packed goods of a DN to a carrier
type DeliveryTask struct {
	ID          string         `bson:"_id" json:"id"`
	Code        string         `bson:"code" json:"code"`
	DNID        string         `bson:"dnId" json:"dnId"`
	WarehouseID string         `bson:"warehouseId" json:"warehouseId"`
	Status      DeliveryStatus `bson:"status" json:"status"`
	Shipping    ShippingInfo   `bson:"shipping" json:"shipping"`
	SignedBy    string         `bson:"signedBy,omitempty" json:"signedBy,omitempty"`

	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
	UpdatedBy   string     `bson:"updatedBy" json:"updatedBy"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	SignedAt    *time.Time `bson:"signedAt,omitempty" json:"signedAt,omitempty"`

	aggregateEvents
}

// NewDeliveryTask creates a pending delivery task for a DN
func NewDeliveryTask(dnID, warehouseID, operatorID string) *DeliveryTask {
	now := time.Now().UTC()
	return &DeliveryTask{
		ID:          uuid.New().String(),
		Code:        GenerateCode("DLV", now),
		DNID:        dnID,
		WarehouseID: warehouseID,
		Status:      DeliveryStatusPending,
		CreatedBy:   operatorID,
		UpdatedBy:   operatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateShipping replaces the carrier details until the delivery completes
func (t *DeliveryTask) UpdateShipping(info ShippingInfo, operatorID string) error {
	if t.Status.IsFinished() {
		return fmt.Errorf("%w: status is %s", ErrDeliveryTaskNotEditable, t.Status)
	}
	t.Shipping = info
	t.touch(operatorID)
	return nil
}

// Process starts the delivery
func (t *DeliveryTask) Process(operatorID string) error {
	now, err := t.transition(DeliveryStatusInProgress, operatorID)
	if err != nil {
		return err
	}
	t.StartedAt = &now
	return nil
}

// Complete records hand-over to the carrier
func (t *DeliveryTask) Complete(operatorID string) error {
	now, err := t.transition(DeliveryStatusCompleted, operatorID)
	if err != nil {
		return err
	}
	t.CompletedAt = &now
	return nil
}

// Sign records receipt by the recipient
func (t *DeliveryTask) Sign(signedBy, operatorID string) error {
	if signedBy == "" {
		signedBy = operatorID
	}
	now, err := t.transition(DeliveryStatusSigned, operatorID)
	if err != nil {
		return err
	}
	t.SignedBy = signedBy
	t.SignedAt = &now
	return nil
}

func (t *DeliveryTask) transition(target DeliveryStatus, operatorID string) (time.Time, error) {
	if !t.Status.CanTransitionTo(target) {
		return time.Time{}, fmt.Errorf("%w: %s -> %s", ErrDeliveryTaskInvalidTransition, t.Status, target)
	}
	from := t.Status
	t.Status = target
	t.touch(operatorID)
	t.addEvent(&StatusChangedEvent{
		EntityType: EntityDeliveryTask,
		EntityID:   t.ID,
		Code:       t.Code,
		FromStatus: string(from),
		ToStatus:   string(target),
		OperatorID: operatorID,
		ChangedAt:  t.UpdatedAt,
	})
	return t.UpdatedAt, nil
}

func (t *DeliveryTask) touch(operatorID string) {
	t.UpdatedBy = operatorID
	t.UpdatedAt = time.Now().UTC()
}
