package application

import (
	"net/http"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// toAppError translates domain failures into AppErrors carrying the
// business code; anything unrecognised becomes an internal error
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	be, ok := domain.AsBusinessError(err)
	if !ok {
		return errors.ErrInternal("").Wrap(err)
	}

	var appErr *errors.AppError
	switch be.Kind {
	case domain.KindNotFound:
		appErr = errors.NewAppError(errors.CodeNotFound, err.Error(), http.StatusNotFound)
	case domain.KindInvalidState:
		appErr = errors.ErrInvalidState(err.Error())
	default:
		appErr = errors.ErrBusinessRule(err.Error())
	}
	return appErr.WithBusinessCode(be.Code).Wrap(err)
}
