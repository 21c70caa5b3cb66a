package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DNStatus represents the status of a delivery note
type DNStatus string

const (
	DNStatusPending    DNStatus = "pending"
	DNStatusInProgress DNStatus = "in_progress"
	DNStatusPicked     DNStatus = "picked"
	DNStatusPacked     DNStatus = "packed"
	DNStatusDelivered  DNStatus = "delivered"
	DNStatusCompleted  DNStatus = "completed"
	DNStatusClosed     DNStatus = "closed"
)

var dnTransitions = map[DNStatus][]DNStatus{
	DNStatusPending:    {DNStatusInProgress, DNStatusClosed},
	DNStatusInProgress: {DNStatusPicked},
	DNStatusPicked:     {DNStatusPacked},
	DNStatusPacked:     {DNStatusDelivered},
	DNStatusDelivered:  {DNStatusCompleted},
}

// CanTransitionTo reports whether the move to target is allowed
func (s DNStatus) CanTransitionTo(target DNStatus) bool {
	for _, allowed := range dnTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsOutstanding reports whether lines in this status still count toward dn stock
func (s DNStatus) IsOutstanding() bool {
	return s == DNStatusPending || s == DNStatusInProgress
}

// DNDetail is one goods line of a DN.
// PickedQuantity <= Quantity and PackedQuantity <= PickedQuantity.
type DNDetail struct {
	ID                string `bson:"id" json:"id"`
	GoodsID           string `bson:"goodsId" json:"goodsId"`
	Quantity          int64  `bson:"quantity" json:"quantity"`
	PickedQuantity    int64  `bson:"pickedQuantity" json:"pickedQuantity"`
	PackedQuantity    int64  `bson:"packedQuantity" json:"packedQuantity"`
	DeliveredQuantity int64  `bson:"deliveredQuantity" json:"deliveredQuantity"`
}

// DN is an outbound document
type DN struct {
	ID          string     `bson:"_id" json:"id"`
	Code        string     `bson:"code" json:"code"`
	WarehouseID string     `bson:"warehouseId" json:"warehouseId"`
	CustomerID  string     `bson:"customerId,omitempty" json:"customerId,omitempty"`
	Remark      string     `bson:"remark,omitempty" json:"remark,omitempty"`
	Status      DNStatus   `bson:"status" json:"status"`
	Details     []DNDetail `bson:"details" json:"details"`

	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
	UpdatedBy   string     `bson:"updatedBy" json:"updatedBy"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	PickedAt    *time.Time `bson:"pickedAt,omitempty" json:"pickedAt,omitempty"`
	PackedAt    *time.Time `bson:"packedAt,omitempty" json:"packedAt,omitempty"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ClosedAt    *time.Time `bson:"closedAt,omitempty" json:"closedAt,omitempty"`

	aggregateEvents
}

// NewDN creates a pending DN
func NewDN(warehouseID, customerID, remark, operatorID string, lines []DetailLine) (*DN, error) {
	if err := requireOperator(operatorID); err != nil {
		return nil, err
	}
	if warehouseID == "" {
		return nil, ErrWarehouseNotFound
	}
	if err := validateLines(lines, ErrDNDuplicateGoods); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dn := &DN{
		ID:          uuid.New().String(),
		Code:        GenerateCode("DN", now),
		WarehouseID: warehouseID,
		CustomerID:  customerID,
		Remark:      remark,
		Status:      DNStatusPending,
		Details:     make([]DNDetail, 0, len(lines)),
		CreatedBy:   operatorID,
		UpdatedBy:   operatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, l := range lines {
		dn.Details = append(dn.Details, newDNDetail(l))
	}
	return dn, nil
}

func newDNDetail(l DetailLine) DNDetail {
	return DNDetail{ID: uuid.New().String(), GoodsID: l.GoodsID, Quantity: l.Quantity}
}

// EnsureEditable fails unless the DN is pending
func (d *DN) EnsureEditable() error {
	if d.Status != DNStatusPending {
		return fmt.Errorf("%w: status is %s", ErrDNNotEditable, d.Status)
	}
	return nil
}

// GoodsIDs lists the goods on the DN in line order
func (d *DN) GoodsIDs() []string {
	ids := make([]string, 0, len(d.Details))
	for _, l := range d.Details {
		ids = append(ids, l.GoodsID)
	}
	return ids
}

// HasGoods reports whether goodsID is on one of the lines
func (d *DN) HasGoods(goodsID string) bool {
	for _, l := range d.Details {
		if l.GoodsID == goodsID {
			return true
		}
	}
	return false
}

// UpdateHeader changes the customer and remark
func (d *DN) UpdateHeader(customerID, remark, operatorID string) error {
	if err := d.EnsureEditable(); err != nil {
		return err
	}
	d.CustomerID = customerID
	d.Remark = remark
	d.touch(operatorID)
	return nil
}

// AddDetail appends a line for goods not yet on the DN
func (d *DN) AddDetail(line DetailLine, operatorID string) (*DNDetail, error) {
	if err := d.EnsureEditable(); err != nil {
		return nil, err
	}
	if err := validateLines([]DetailLine{line}, ErrDNDuplicateGoods); err != nil {
		return nil, err
	}
	if d.HasGoods(line.GoodsID) {
		return nil, fmt.Errorf("%w: %s", ErrDNDuplicateGoods, line.GoodsID)
	}
	d.Details = append(d.Details, newDNDetail(line))
	d.touch(operatorID)
	return &d.Details[len(d.Details)-1], nil
}

// UpdateDetail changes the planned quantity of a line and returns its goods
func (d *DN) UpdateDetail(detailID string, quantity int64, operatorID string) (string, error) {
	if err := d.EnsureEditable(); err != nil {
		return "", err
	}
	if quantity <= 0 {
		return "", ErrInvalidQuantity
	}
	idx := d.detailIndex(detailID)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrDNDetailNotFound, detailID)
	}
	d.Details[idx].Quantity = quantity
	d.touch(operatorID)
	return d.Details[idx].GoodsID, nil
}

// RemoveDetail deletes a line and returns its goods
func (d *DN) RemoveDetail(detailID, operatorID string) (string, error) {
	if err := d.EnsureEditable(); err != nil {
		return "", err
	}
	idx := d.detailIndex(detailID)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrDNDetailNotFound, detailID)
	}
	goodsID := d.Details[idx].GoodsID
	d.Details = append(d.Details[:idx], d.Details[idx+1:]...)
	d.touch(operatorID)
	return goodsID, nil
}

// SyncDetails replaces every line; the batch is rejected as a whole when two
// lines share a goods id. Returns the goods whose outstanding quantity may
// have changed.
func (d *DN) SyncDetails(lines []DetailLine, operatorID string) ([]string, error) {
	if err := d.EnsureEditable(); err != nil {
		return nil, err
	}
	if err := validateLines(lines, ErrDNDuplicateGoods); err != nil {
		return nil, err
	}

	before := d.GoodsIDs()
	existing := make(map[string]string, len(d.Details))
	for _, l := range d.Details {
		existing[l.GoodsID] = l.ID
	}

	details := make([]DNDetail, 0, len(lines))
	after := make([]string, 0, len(lines))
	for _, l := range lines {
		detail := newDNDetail(l)
		if id, ok := existing[l.GoodsID]; ok {
			detail.ID = id
		}
		details = append(details, detail)
		after = append(after, l.GoodsID)
	}
	d.Details = details
	d.touch(operatorID)
	return unionGoods(before, after), nil
}

// Progress starts fulfilment
func (d *DN) Progress(operatorID string) error {
	if err := d.checkTransition(DNStatusInProgress); err != nil {
		return err
	}
	if len(d.Details) == 0 {
		return ErrDNNoDetails
	}
	now := d.transition(DNStatusInProgress, operatorID)
	d.StartedAt = &now
	return nil
}

// Pick reconciles picked quantities from the picking tally
func (d *DN) Pick(picked map[string]int64, operatorID string) error {
	if err := d.checkTransition(DNStatusPicked); err != nil {
		return err
	}
	for _, l := range d.Details {
		if q := picked[l.GoodsID]; q > l.Quantity {
			return fmt.Errorf("%w: goods %s picked %d of %d", ErrDNPickedExceedsQuantity, l.GoodsID, q, l.Quantity)
		}
	}
	for i := range d.Details {
		d.Details[i].PickedQuantity = picked[d.Details[i].GoodsID]
	}
	now := d.transition(DNStatusPicked, operatorID)
	d.PickedAt = &now
	return nil
}

// Pack reconciles packed quantities from the packing tally
func (d *DN) Pack(packed map[string]int64, operatorID string) error {
	if err := d.checkTransition(DNStatusPacked); err != nil {
		return err
	}
	for _, l := range d.Details {
		if q := packed[l.GoodsID]; q > l.PickedQuantity {
			return fmt.Errorf("%w: goods %s packed %d of %d picked", ErrDNPackedExceedsPicked, l.GoodsID, q, l.PickedQuantity)
		}
	}
	for i := range d.Details {
		d.Details[i].PackedQuantity = packed[d.Details[i].GoodsID]
	}
	now := d.transition(DNStatusPacked, operatorID)
	d.PackedAt = &now
	return nil
}

// Deliver reconciles delivered quantities. Nothing counts as delivered until
// the delivery task has completed or been signed.
func (d *DN) Deliver(deliveryFinished bool, operatorID string) error {
	if err := d.checkTransition(DNStatusDelivered); err != nil {
		return err
	}
	for i := range d.Details {
		if deliveryFinished {
			d.Details[i].DeliveredQuantity = d.Details[i].PackedQuantity
		} else {
			d.Details[i].DeliveredQuantity = 0
		}
	}
	now := d.transition(DNStatusDelivered, operatorID)
	d.DeliveredAt = &now
	return nil
}

// Complete finishes the DN
func (d *DN) Complete(operatorID string) error {
	if err := d.checkTransition(DNStatusCompleted); err != nil {
		return err
	}
	now := d.transition(DNStatusCompleted, operatorID)
	d.CompletedAt = &now
	return nil
}

// Close abandons a pending DN
func (d *DN) Close(operatorID string) error {
	if err := d.checkTransition(DNStatusClosed); err != nil {
		return err
	}
	now := d.transition(DNStatusClosed, operatorID)
	d.ClosedAt = &now
	return nil
}

func (d *DN) checkTransition(target DNStatus) error {
	if !d.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrDNInvalidTransition, d.Status, target)
	}
	return nil
}

func (d *DN) transition(target DNStatus, operatorID string) time.Time {
	from := d.Status
	d.Status = target
	d.touch(operatorID)
	d.addEvent(&StatusChangedEvent{
		EntityType: EntityDN,
		EntityID:   d.ID,
		Code:       d.Code,
		FromStatus: string(from),
		ToStatus:   string(target),
		OperatorID: operatorID,
		ChangedAt:  d.UpdatedAt,
	})
	return d.UpdatedAt
}

func (d *DN) touch(operatorID string) {
	d.UpdatedBy = operatorID
	d.UpdatedAt = time.Now().UTC()
}

func (d *DN) detailIndex(detailID string) int {
	for i, l := range d.Details {
		if l.ID == detailID {
			return i
		}
	}
	return -1
}
