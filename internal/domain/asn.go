package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ASNStatus represents the status of an advance shipping notice
type ASNStatus string

const (
	ASNStatusPending   ASNStatus = "pending"
	ASNStatusReceived  ASNStatus = "received"
	ASNStatusCompleted ASNStatus = "completed"
	ASNStatusClosed    ASNStatus = "closed"
)

var asnTransitions = map[ASNStatus][]ASNStatus{
	ASNStatusPending:  {ASNStatusReceived, ASNStatusClosed},
	ASNStatusReceived: {ASNStatusCompleted},
}

// CanTransitionTo reports whether the move to target is allowed
func (s ASNStatus) CanTransitionTo(target ASNStatus) bool {
	for _, allowed := range asnTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ASNDetail is one expected goods line of an ASN
type ASNDetail struct {
	ID             string `bson:"id" json:"id"`
	GoodsID        string `bson:"goodsId" json:"goodsId"`
	Quantity       int64  `bson:"quantity" json:"quantity"`
	ActualQuantity int64  `bson:"actualQuantity" json:"actualQuantity"`
	SortedQuantity int64  `bson:"sortedQuantity" json:"sortedQuantity"`
	DamageQuantity int64  `bson:"damageQuantity" json:"damageQuantity"`
}

// ASN is an inbound document. Header and lines are editable only while pending.
type ASN struct {
	ID          string      `bson:"_id" json:"id"`
	Code        string      `bson:"code" json:"code"`
	WarehouseID string      `bson:"warehouseId" json:"warehouseId"`
	SupplierID  string      `bson:"supplierId,omitempty" json:"supplierId,omitempty"`
	Remark      string      `bson:"remark,omitempty" json:"remark,omitempty"`
	Status      ASNStatus   `bson:"status" json:"status"`
	Details     []ASNDetail `bson:"details" json:"details"`

	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
	UpdatedBy   string     `bson:"updatedBy" json:"updatedBy"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	ReceivedAt  *time.Time `bson:"receivedAt,omitempty" json:"receivedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ClosedAt    *time.Time `bson:"closedAt,omitempty" json:"closedAt,omitempty"`

	aggregateEvents
}

// NewASN creates a pending ASN
func NewASN(warehouseID, supplierID, remark, operatorID string, lines []DetailLine) (*ASN, error) {
	if err := requireOperator(operatorID); err != nil {
		return nil, err
	}
	if warehouseID == "" {
		return nil, ErrWarehouseNotFound
	}
	if err := validateLines(lines, ErrASNDuplicateGoods); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	asn := &ASN{
		ID:          uuid.New().String(),
		Code:        GenerateCode("ASN", now),
		WarehouseID: warehouseID,
		SupplierID:  supplierID,
		Remark:      remark,
		Status:      ASNStatusPending,
		Details:     make([]ASNDetail, 0, len(lines)),
		CreatedBy:   operatorID,
		UpdatedBy:   operatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, l := range lines {
		asn.Details = append(asn.Details, newASNDetail(l))
	}
	return asn, nil
}

func newASNDetail(l DetailLine) ASNDetail {
	return ASNDetail{ID: uuid.New().String(), GoodsID: l.GoodsID, Quantity: l.Quantity}
}

// EnsureEditable fails unless the ASN is pending
func (a *ASN) EnsureEditable() error {
	if a.Status != ASNStatusPending {
		return fmt.Errorf("%w: status is %s", ErrASNNotEditable, a.Status)
	}
	return nil
}

// GoodsIDs lists the goods on the ASN in line order
func (a *ASN) GoodsIDs() []string {
	ids := make([]string, 0, len(a.Details))
	for _, d := range a.Details {
		ids = append(ids, d.GoodsID)
	}
	return ids
}

// HasGoods reports whether goodsID is on one of the lines
func (a *ASN) HasGoods(goodsID string) bool {
	for _, d := range a.Details {
		if d.GoodsID == goodsID {
			return true
		}
	}
	return false
}

// UpdateHeader changes the supplier and remark
func (a *ASN) UpdateHeader(supplierID, remark, operatorID string) error {
	if err := a.EnsureEditable(); err != nil {
		return err
	}
	a.SupplierID = supplierID
	a.Remark = remark
	a.touch(operatorID)
	return nil
}

// AddDetail appends a line for goods not yet on the ASN
func (a *ASN) AddDetail(line DetailLine, operatorID string) (*ASNDetail, error) {
	if err := a.EnsureEditable(); err != nil {
		return nil, err
	}
	if err := validateLines([]DetailLine{line}, ErrASNDuplicateGoods); err != nil {
		return nil, err
	}
	if a.HasGoods(line.GoodsID) {
		return nil, fmt.Errorf("%w: %s", ErrASNDuplicateGoods, line.GoodsID)
	}
	a.Details = append(a.Details, newASNDetail(line))
	a.touch(operatorID)
	return &a.Details[len(a.Details)-1], nil
}

// UpdateDetail changes the expected quantity of a line and returns its goods
func (a *ASN) UpdateDetail(detailID string, quantity int64, operatorID string) (string, error) {
	if err := a.EnsureEditable(); err != nil {
		return "", err
	}
	if quantity <= 0 {
		return "", ErrInvalidQuantity
	}
	idx := a.detailIndex(detailID)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrASNDetailNotFound, detailID)
	}
	a.Details[idx].Quantity = quantity
	a.touch(operatorID)
	return a.Details[idx].GoodsID, nil
}

// RemoveDetail deletes a line and returns its goods
func (a *ASN) RemoveDetail(detailID, operatorID string) (string, error) {
	if err := a.EnsureEditable(); err != nil {
		return "", err
	}
	idx := a.detailIndex(detailID)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrASNDetailNotFound, detailID)
	}
	goodsID := a.Details[idx].GoodsID
	a.Details = append(a.Details[:idx], a.Details[idx+1:]...)
	a.touch(operatorID)
	return goodsID, nil
}

// SyncDetails replaces every line. Lines for goods already present keep their
// id. Returns the goods whose outstanding quantity may have changed.
func (a *ASN) SyncDetails(lines []DetailLine, operatorID string) ([]string, error) {
	if err := a.EnsureEditable(); err != nil {
		return nil, err
	}
	if err := validateLines(lines, ErrASNDuplicateGoods); err != nil {
		return nil, err
	}

	before := a.GoodsIDs()
	existing := make(map[string]string, len(a.Details))
	for _, d := range a.Details {
		existing[d.GoodsID] = d.ID
	}

	details := make([]ASNDetail, 0, len(lines))
	after := make([]string, 0, len(lines))
	for _, l := range lines {
		d := newASNDetail(l)
		if id, ok := existing[l.GoodsID]; ok {
			d.ID = id
		}
		details = append(details, d)
		after = append(after, l.GoodsID)
	}
	a.Details = details
	a.touch(operatorID)
	return unionGoods(before, after), nil
}

// Receive moves the ASN to received
func (a *ASN) Receive(operatorID string) error {
	if err := a.checkTransition(ASNStatusReceived); err != nil {
		return err
	}
	if len(a.Details) == 0 {
		return ErrASNNoDetails
	}
	now := a.transition(ASNStatusReceived, operatorID)
	a.ReceivedAt = &now
	return nil
}

// Complete reconciles each line from the sorting tally and moves the ASN to
// completed. Lines without a tally entry were not sorted at all.
func (a *ASN) Complete(tally map[string]TaskTally, operatorID string) error {
	if err := a.checkTransition(ASNStatusCompleted); err != nil {
		return err
	}
	for i := range a.Details {
		t := tally[a.Details[i].GoodsID]
		a.Details[i].SortedQuantity = t.Quantity
		a.Details[i].DamageQuantity = t.Damage
		a.Details[i].ActualQuantity = t.Quantity + t.Damage
	}
	now := a.transition(ASNStatusCompleted, operatorID)
	a.CompletedAt = &now
	return nil
}

// Close abandons a pending ASN
func (a *ASN) Close(operatorID string) error {
	if err := a.checkTransition(ASNStatusClosed); err != nil {
		return err
	}
	now := a.transition(ASNStatusClosed, operatorID)
	a.ClosedAt = &now
	return nil
}

func (a *ASN) checkTransition(target ASNStatus) error {
	if !a.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrASNInvalidTransition, a.Status, target)
	}
	return nil
}

func (a *ASN) transition(target ASNStatus, operatorID string) time.Time {
	from := a.Status
	a.Status = target
	a.touch(operatorID)
	a.addEvent(&StatusChangedEvent{
		EntityType: EntityASN,
		EntityID:   a.ID,
		Code:       a.Code,
		FromStatus: string(from),
		ToStatus:   string(target),
		OperatorID: operatorID,
		ChangedAt:  a.UpdatedAt,
	})
	return a.UpdatedAt
}

func (a *ASN) touch(operatorID string) {
	a.UpdatedBy = operatorID
	a.UpdatedAt = time.Now().UTC()
}

func (a *ASN) detailIndex(detailID string) int {
	for i, d := range a.Details {
		if d.ID == detailID {
			return i
		}
	}
	return -1
}
