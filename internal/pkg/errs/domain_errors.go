package errs

import "errors"

// Sentinel errors shared by the admission and reconciliation use cases.
// Callers compare with Is; the wire code for each lives in Code.
var (
	// Caller errors, not retryable
	ErrInvalidSlotIdentifier = errors.New("invalid slot identifier")
	ErrInvalidSubject        = errors.New("invalid subject")
	ErrSlotNotFound          = errors.New("slot not found")
	ErrAlreadyReserved       = errors.New("subject already holds a reservation for this activity")

	// Business outcome: capacity correctly enforced
	ErrNoSpotsAvailable = errors.New("no spots available")

	// Infrastructure contention, safe to retry with backoff
	ErrTransactionAborted = errors.New("transaction aborted")

	// Reconciliation found counter > capacity
	ErrConsistencyAlarm = errors.New("consistency alarm")

	ErrDatabaseOperationFailed = errors.New("database operation failed")

	ErrRateLimited = errors.New("rate limited")
)

const (
	CodeInvalidSlotIdentifier = "INVALID_SLOT_IDENTIFIER"
	CodeInvalidSubject        = "INVALID_SUBJECT"
	CodeSlotNotFound          = "SLOT_NOT_FOUND"
	CodeAlreadyReserved       = "ALREADY_RESERVED"
	CodeNoSpotsAvailable      = "NO_SPOTS_AVAILABLE"
	CodeTransactionAborted    = "TRANSACTION_ABORTED"
	CodeConsistencyAlarm      = "CONSISTENCY_ALARM"
	CodeRateLimited           = "RATE_LIMITED"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInternal              = "INTERNAL"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidSlotIdentifier, CodeInvalidSlotIdentifier},
	{ErrInvalidSubject, CodeInvalidSubject},
	{ErrSlotNotFound, CodeSlotNotFound},
	{ErrAlreadyReserved, CodeAlreadyReserved},
	{ErrNoSpotsAvailable, CodeNoSpotsAvailable},
	{ErrTransactionAborted, CodeTransactionAborted},
	{ErrConsistencyAlarm, CodeConsistencyAlarm},
	{ErrRateLimited, CodeRateLimited},
}

// Code returns the wire error code for err, or "" for nil.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
