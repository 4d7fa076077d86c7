package domain

import "errors"

// Error kinds. Callers match them with errors.Is.
var (
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrTargetUnavailable  = errors.New("target unavailable")
	ErrWriteFailed        = errors.New("write failed")
	ErrLinkageWriteFailed = errors.New("linkage write failed")
	ErrRollbackFailed     = errors.New("rollback failed")
	ErrConfigMissing      = errors.New("config missing")
	ErrSyncAborted        = errors.New("sync aborted")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrRunInProgress      = errors.New("run in progress")
	ErrUnauthorized       = errors.New("unauthorized")
)

// OpError wraps an underlying failure with its kind, the operation that failed and
// an optional reference (product code, Shopify id, business code).
type OpError struct {
	Kind error
	Op   string
	Ref  string
	Err  error
}

func (e *OpError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Ref != "" {
		msg += " (" + e.Ref + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports a match on the kind so errors.Is(err, ErrWriteFailed) works through OpError.
func (e *OpError) Is(target error) bool {
	return e.Kind == target
}

func (e *OpError) Unwrap() error { return e.Err }

// NewOpError builds an OpError. ref may be empty.
func NewOpError(kind error, op, ref string, err error) *OpError {
	return &OpError{Kind: kind, Op: op, Ref: ref, Err: err}
}

// Kind returns the first known error kind found in err's chain, or nil.
func Kind(err error) error {
	for _, k := range []error{
		ErrSyncAborted,
		ErrUnauthorized,
		ErrRunInProgress,
		ErrRollbackFailed,
		ErrLinkageWriteFailed,
		ErrSourceUnavailable,
		ErrTargetUnavailable,
		ErrWriteFailed,
		ErrConfigMissing,
		ErrInvalidProduct,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
