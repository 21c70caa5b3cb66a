package domain

import "errors"

// ErrorKind classifies a BusinessError for callers that translate it
type ErrorKind int

const (
	KindBadRequest ErrorKind = iota
	KindNotFound
	KindInvalidState
)

// BusinessError is a rule violation with a stable numeric code. Values are
// sentinels: compare with errors.Is, add context with fmt.Errorf("%w: ...").
type BusinessError struct {
	Code    int
	Kind    ErrorKind
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

func newError(code int, kind ErrorKind, message string) *BusinessError {
	return &BusinessError{Code: code, Kind: kind, Message: message}
}

// AsBusinessError unwraps err to the BusinessError it carries
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// CodeOf returns the business code carried by err, or 0
func CodeOf(err error) int {
	if be, ok := AsBusinessError(err); ok {
		return be.Code
	}
	return 0
}

// Common
var (
	ErrInvalidQuantity           = newError(10001, KindBadRequest, "invalid quantity")
	ErrOperatorRequired          = newError(10002, KindBadRequest, "operator id is required")
	ErrWarehouseNotFound         = newError(10003, KindNotFound, "warehouse not found")
	ErrGoodsNotFound             = newError(10004, KindNotFound, "goods not found")
	ErrLocationNotFound          = newError(10005, KindNotFound, "location not found")
	ErrLocationWarehouseMismatch = newError(10006, KindBadRequest, "location belongs to another warehouse")
	ErrLocationRequired          = newError(10007, KindBadRequest, "location is required")
)

// Inventory ledger
var (
	ErrInventoryNotFound         = newError(10101, KindNotFound, "inventory not found")
	ErrInsufficientOnhand        = newError(10102, KindBadRequest, "insufficient on-hand stock")
	ErrInsufficientLocked        = newError(10103, KindBadRequest, "insufficient locked stock")
	ErrInsufficientASN           = newError(10104, KindBadRequest, "insufficient ASN stock")
	ErrInsufficientSorted        = newError(10105, KindBadRequest, "insufficient sorted stock")
	ErrInsufficientDN            = newError(10106, KindBadRequest, "insufficient DN stock")
	ErrInsufficientPicked        = newError(10107, KindBadRequest, "insufficient picked stock")
	ErrInsufficientPacked        = newError(10108, KindBadRequest, "insufficient packed stock")
	ErrInsufficientDelivered     = newError(10109, KindBadRequest, "insufficient delivered stock")
	ErrInvalidThreshold          = newError(10110, KindBadRequest, "high threshold must be -1 or greater than low threshold")
	ErrInsufficientLocationStock = newError(10111, KindBadRequest, "insufficient stock at location")
)

// ASN
var (
	ErrASNNotFound          = newError(20001, KindNotFound, "ASN not found")
	ErrASNNotEditable       = newError(20002, KindInvalidState, "ASN can only be edited while pending")
	ErrASNInvalidTransition = newError(20003, KindInvalidState, "ASN status transition not allowed")
	ErrASNDetailNotFound    = newError(20004, KindNotFound, "ASN detail not found")
	ErrASNDuplicateGoods    = newError(20005, KindBadRequest, "duplicate goods in ASN details")
	ErrASNNoDetails         = newError(20006, KindBadRequest, "ASN has no details")
)

// TaskErrors is the error set of one task kind
type TaskErrors struct {
	NotFound           *BusinessError
	NotEditable        *BusinessError
	InvalidTransition  *BusinessError
	BatchNotFound      *BusinessError
	DetailNotFound     *BusinessError
	GoodsNotInDocument *BusinessError
}

func newTaskErrors(base int, name string) TaskErrors {
	return TaskErrors{
		NotFound:           newError(base+1, KindNotFound, name+" task not found"),
		NotEditable:        newError(base+2, KindInvalidState, name+" task batches and details can only be edited while in progress"),
		InvalidTransition:  newError(base+3, KindInvalidState, name+" task status transition not allowed"),
		BatchNotFound:      newError(base+4, KindNotFound, name+" batch not found"),
		DetailNotFound:     newError(base+5, KindNotFound, name+" detail not found"),
		GoodsNotInDocument: newError(base+6, KindBadRequest, "goods not part of the "+name+" task document"),
	}
}

var (
	SortingTaskErrors = newTaskErrors(21000, "sorting")
	PickingTaskErrors = newTaskErrors(31000, "picking")
	PackingTaskErrors = newTaskErrors(32000, "packing")
)

// Stock moves
var (
	ErrLocationNotStockable = newError(22001, KindBadRequest, "location type does not hold stock")
)

// DN
var (
	ErrDNNotFound              = newError(30001, KindNotFound, "DN not found")
	ErrDNNotEditable           = newError(30002, KindInvalidState, "DN can only be edited while pending")
	ErrDNInvalidTransition     = newError(30003, KindInvalidState, "DN status transition not allowed")
	ErrDNDetailNotFound        = newError(30004, KindNotFound, "DN detail not found")
	ErrDNDuplicateGoods        = newError(30005, KindBadRequest, "duplicate goods in DN details")
	ErrDNNoDetails             = newError(30006, KindBadRequest, "DN has no details")
	ErrDNPickedExceedsQuantity = newError(30007, KindBadRequest, "picked quantity exceeds planned quantity")
	ErrDNPackedExceedsPicked   = newError(30008, KindBadRequest, "packed quantity exceeds picked quantity")
)

// Delivery
var (
	ErrDeliveryTaskNotFound          = newError(33001, KindNotFound, "delivery task not found")
	ErrDeliveryTaskInvalidTransition = newError(33002, KindInvalidState, "delivery task status transition not allowed")
	ErrDeliveryTaskNotEditable       = newError(33003, KindInvalidState, "delivery task shipping details are locked once completed")
)
