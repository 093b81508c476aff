package service

import (
	"errors"
	"fmt"

	dErrors "charitydrive/pkg/domain-errors"
)

// Marketplace failures. Service methods return them wrapped in a coded
// domain error, so both errors.Is(err, ErrX) and the HTTP code mapping work.
var (
	ErrNotOperator         = errors.New("not operator")
	ErrOperatorCannotBid   = errors.New("operator cannot bid")
	ErrMarketplaceClosed   = errors.New("marketplace closed")
	ErrCatalogNotReady     = errors.New("catalog not ready")
	ErrLengthMismatch      = errors.New("length mismatch")
	ErrUnknownItem         = errors.New("unknown item")
	ErrUnknownRequiredItem = errors.New("unknown required item")
	ErrItemNotRegistered   = errors.New("item not registered")
	ErrNoOpUpdate          = errors.New("no-op update")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrInsufficientCredit  = errors.New("insufficient credit")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrDuplicateItem       = errors.New("duplicate item")
)

// UnknownItemError names the first item of a registration that the catalog
// does not know.
type UnknownItemError struct {
	Name string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown item %q", e.Name)
}

func (e *UnknownItemError) Is(target error) bool {
	return target == ErrUnknownItem
}

func unauthenticated() error {
	return dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
}

func notOperator() error {
	return dErrors.Wrap(ErrNotOperator, dErrors.CodeForbidden, "only the marketplace operator can call this function")
}

func operatorCannotBid() error {
	return dErrors.Wrap(ErrOperatorCannotBid, dErrors.CodeForbidden, "the marketplace operator cannot call this function")
}

func marketplaceClosed() error {
	return dErrors.Wrap(ErrMarketplaceClosed, dErrors.CodePreconditionFailed, "bidding is closed")
}

func catalogNotReady() error {
	return dErrors.Wrap(ErrCatalogNotReady, dErrors.CodePreconditionFailed, "catalog ownership has not been transferred")
}

func lengthMismatch() error {
	return dErrors.Wrap(ErrLengthMismatch, dErrors.CodeValidation, "input lists must have the same length")
}

func unknownItem(name string) error {
	return dErrors.Wrap(&UnknownItemError{Name: name}, dErrors.CodeValidation, fmt.Sprintf("item %q does not exist in the catalog", name))
}

func unknownRequiredItem(name string) error {
	return dErrors.Wrap(ErrUnknownRequiredItem, dErrors.CodeNotFound, fmt.Sprintf("item %q is not a required item", name))
}

func itemNotRegistered(name string) error {
	return dErrors.Wrap(ErrItemNotRegistered, dErrors.CodeNotFound, fmt.Sprintf("item %q is not registered", name))
}

func noOpUpdate(field string) error {
	return dErrors.Wrap(ErrNoOpUpdate, dErrors.CodeValidation, "new "+field+" must differ from the current value")
}

func quotaExceeded(name string, remaining int64) error {
	return dErrors.Wrap(ErrQuotaExceeded, dErrors.CodeConflict, fmt.Sprintf("item %q needs only %d more units", name, remaining))
}

func insufficientCredit(cause error) error {
	if cause == nil {
		cause = ErrInsufficientCredit
	} else {
		cause = fmt.Errorf("%w: %w", ErrInsufficientCredit, cause)
	}
	return dErrors.Wrap(cause, dErrors.CodeInsufficientFunds, "not enough credit")
}

func invalidTransition(msg string) error {
	return dErrors.Wrap(ErrInvalidTransition, dErrors.CodeConflict, msg)
}

func invalidAmount(msg string) error {
	return dErrors.Wrap(ErrInvalidAmount, dErrors.CodeValidation, msg)
}

func duplicateItem(name string) error {
	return dErrors.Wrap(ErrDuplicateItem, dErrors.CodeValidation, fmt.Sprintf("item %q is listed more than once", name))
}

func internal(err error, msg string) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// orInternal passes coded errors through and marks anything else internal.
func orInternal(err error, msg string) error {
	var de *dErrors.Error
	if err == nil || errors.As(err, &de) {
		return err
	}
	return internal(err, msg)
}
