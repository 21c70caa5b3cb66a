package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskType distinguishes the batch/detail tasks spawned by documents
type TaskType string

const (
	TaskTypeSorting TaskType = "sorting"
	TaskTypePicking TaskType = "picking"
	TaskTypePacking TaskType = "packing"
)

// IsValid checks if the task type is known
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeSorting, TaskTypePicking, TaskTypePacking:
		return true
	default:
		return false
	}
}

// Errors returns the error set of the task type
func (t TaskType) Errors() TaskErrors {
	switch t {
	case TaskTypePicking:
		return PickingTaskErrors
	case TaskTypePacking:
		return PackingTaskErrors
	default:
		return SortingTaskErrors
	}
}

// EntityType returns the status log entity of the task type
func (t TaskType) EntityType() EntityType {
	switch t {
	case TaskTypePicking:
		return EntityPickingTask
	case TaskTypePacking:
		return EntityPackingTask
	default:
		return EntitySortingTask
	}
}

func (t TaskType) codePrefix() string {
	switch t {
	case TaskTypePicking:
		return "PICK"
	case TaskTypePacking:
		return "PACK"
	default:
		return "SORT"
	}
}

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskBatch groups the details an operator recorded at one time
type TaskBatch struct {
	ID        string    `bson:"id" json:"id"`
	Remark    string    `bson:"remark,omitempty" json:"remark,omitempty"`
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// TaskDetail is one goods quantity recorded against a batch.
// DamageQuantity is only used by sorting; LocationID is the source
// location of a pick.
type TaskDetail struct {
	ID             string    `bson:"id" json:"id"`
	BatchID        string    `bson:"batchId" json:"batchId"`
	GoodsID        string    `bson:"goodsId" json:"goodsId"`
	LocationID     string    `bson:"locationId,omitempty" json:"locationId,omitempty"`
	Quantity       int64     `bson:"quantity" json:"quantity"`
	DamageQuantity int64     `bson:"damageQuantity" json:"damageQuantity"`
	CreatedBy      string    `bson:"createdBy" json:"createdBy"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// TaskDetailInput carries the editable fields of a detail
type TaskDetailInput struct {
	GoodsID        string
	LocationID     string
	Quantity       int64
	DamageQuantity int64
}

// TaskTally is the summed quantities of one goods on a task
type TaskTally struct {
	Quantity int64
	Damage   int64
}

// Task is a sorting, picking or packing task. There is one task of each
// type per document.
type Task struct {
	ID          string       `bson:"_id" json:"id"`
	Code        string       `bson:"code" json:"code"`
	Type        TaskType     `bson:"type" json:"type"`
	DocumentID  string       `bson:"documentId" json:"documentId"`
	WarehouseID string       `bson:"warehouseId" json:"warehouseId"`
	Status      TaskStatus   `bson:"status" json:"status"`
	Batches     []TaskBatch  `bson:"batches" json:"batches"`
	Details     []TaskDetail `bson:"details" json:"details"`

	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
	UpdatedBy   string     `bson:"updatedBy" json:"updatedBy"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	aggregateEvents
}

// NewTask creates a pending task for a document
func NewTask(taskType TaskType, documentID, warehouseID, operatorID string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:          uuid.New().String(),
		Code:        GenerateCode(taskType.codePrefix(), now),
		Type:        taskType,
		DocumentID:  documentID,
		WarehouseID: warehouseID,
		Status:      TaskStatusPending,
		Batches:     []TaskBatch{},
		Details:     []TaskDetail{},
		CreatedBy:   operatorID,
		UpdatedBy:   operatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EnsureEditable fails unless the task is in progress
func (t *Task) EnsureEditable() error {
	if t.Status != TaskStatusInProgress {
		return fmt.Errorf("%w: status is %s", t.Type.Errors().NotEditable, t.Status)
	}
	return nil
}

// Process starts the task
func (t *Task) Process(operatorID string) error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("%w: %s -> %s", t.Type.Errors().InvalidTransition, t.Status, TaskStatusInProgress)
	}
	now := t.transition(TaskStatusInProgress, operatorID)
	t.StartedAt = &now
	return nil
}

// Complete finishes the task
func (t *Task) Complete(operatorID string) error {
	if t.Status != TaskStatusInProgress {
		return fmt.Errorf("%w: %s -> %s", t.Type.Errors().InvalidTransition, t.Status, TaskStatusCompleted)
	}
	now := t.transition(TaskStatusCompleted, operatorID)
	t.CompletedAt = &now
	return nil
}

// AddBatch opens a new batch
func (t *Task) AddBatch(remark, operatorID string) (*TaskBatch, error) {
	if err := t.EnsureEditable(); err != nil {
		return nil, err
	}
	t.touch(operatorID)
	t.Batches = append(t.Batches, TaskBatch{
		ID:        uuid.New().String(),
		Remark:    remark,
		CreatedBy: operatorID,
		CreatedAt: t.UpdatedAt,
	})
	return &t.Batches[len(t.Batches)-1], nil
}

// RemoveBatch deletes a batch together with its details
func (t *Task) RemoveBatch(batchID, operatorID string) error {
	if err := t.EnsureEditable(); err != nil {
		return err
	}
	idx := t.batchIndex(batchID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", t.Type.Errors().BatchNotFound, batchID)
	}
	t.Batches = append(t.Batches[:idx], t.Batches[idx+1:]...)

	kept := t.Details[:0]
	for _, d := range t.Details {
		if d.BatchID != batchID {
			kept = append(kept, d)
		}
	}
	t.Details = kept
	t.touch(operatorID)
	return nil
}

// AddDetail records goods against a batch. documentGoods lists the goods of
// the parent document; anything else is rejected.
func (t *Task) AddDetail(batchID string, in TaskDetailInput, documentGoods []string, operatorID string) (*TaskDetail, error) {
	if err := t.EnsureEditable(); err != nil {
		return nil, err
	}
	if t.batchIndex(batchID) < 0 {
		return nil, fmt.Errorf("%w: %s", t.Type.Errors().BatchNotFound, batchID)
	}
	if err := t.validateDetail(in, documentGoods); err != nil {
		return nil, err
	}
	t.touch(operatorID)
	t.Details = append(t.Details, TaskDetail{
		ID:             uuid.New().String(),
		BatchID:        batchID,
		GoodsID:        in.GoodsID,
		LocationID:     in.LocationID,
		Quantity:       in.Quantity,
		DamageQuantity: in.DamageQuantity,
		CreatedBy:      operatorID,
		CreatedAt:      t.UpdatedAt,
	})
	return &t.Details[len(t.Details)-1], nil
}

// UpdateDetail replaces the editable fields of a detail
func (t *Task) UpdateDetail(detailID string, in TaskDetailInput, documentGoods []string, operatorID string) (*TaskDetail, error) {
	if err := t.EnsureEditable(); err != nil {
		return nil, err
	}
	idx := t.detailIndex(detailID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", t.Type.Errors().DetailNotFound, detailID)
	}
	if err := t.validateDetail(in, documentGoods); err != nil {
		return nil, err
	}
	d := &t.Details[idx]
	d.GoodsID = in.GoodsID
	d.LocationID = in.LocationID
	d.Quantity = in.Quantity
	d.DamageQuantity = in.DamageQuantity
	t.touch(operatorID)
	return d, nil
}

// RemoveDetail deletes a detail
func (t *Task) RemoveDetail(detailID, operatorID string) error {
	if err := t.EnsureEditable(); err != nil {
		return err
	}
	idx := t.detailIndex(detailID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", t.Type.Errors().DetailNotFound, detailID)
	}
	t.Details = append(t.Details[:idx], t.Details[idx+1:]...)
	t.touch(operatorID)
	return nil
}

// Tally sums detail quantities per goods
func (t *Task) Tally() map[string]TaskTally {
	tally := make(map[string]TaskTally)
	for _, d := range t.Details {
		cur := tally[d.GoodsID]
		cur.Quantity += d.Quantity
		cur.Damage += d.DamageQuantity
		tally[d.GoodsID] = cur
	}
	return tally
}

// Quantities sums detail quantities per goods, ignoring damage
func (t *Task) Quantities() map[string]int64 {
	out := make(map[string]int64)
	for goodsID, tally := range t.Tally() {
		out[goodsID] = tally.Quantity
	}
	return out
}

func (t *Task) validateDetail(in TaskDetailInput, documentGoods []string) error {
	if in.Quantity < 0 || in.DamageQuantity < 0 || in.Quantity+in.DamageQuantity == 0 {
		return fmt.Errorf("%w: quantity %d damage %d", ErrInvalidQuantity, in.Quantity, in.DamageQuantity)
	}
	if t.Type != TaskTypeSorting && in.DamageQuantity != 0 {
		return fmt.Errorf("%w: damage is only recorded while sorting", ErrInvalidQuantity)
	}
	if t.Type == TaskTypePicking && in.LocationID == "" {
		return ErrLocationRequired
	}
	for _, g := range documentGoods {
		if g == in.GoodsID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", t.Type.Errors().GoodsNotInDocument, in.GoodsID)
}

func (t *Task) transition(target TaskStatus, operatorID string) time.Time {
	from := t.Status
	t.Status = target
	t.touch(operatorID)
	t.addEvent(&StatusChangedEvent{
		EntityType: t.Type.EntityType(),
		EntityID:   t.ID,
		Code:       t.Code,
		FromStatus: string(from),
		ToStatus:   string(target),
		OperatorID: operatorID,
		ChangedAt:  t.UpdatedAt,
	})
	return t.UpdatedAt
}

func (t *Task) touch(operatorID string) {
	t.UpdatedBy = operatorID
	t.UpdatedAt = time.Now().UTC()
}

func (t *Task) batchIndex(batchID string) int {
	for i, b := range t.Batches {
		if b.ID == batchID {
			return i
		}
	}
	return -1
}

func (t *Task) detailIndex(detailID string) int {
	for i, d := range t.Details {
		if d.ID == detailID {
			return i
		}
	}
	return -1
}
