package sim

import "errors"

// Domain error kinds. Callers match with errors.Is; wrapped messages carry
// the offending ids and values.
var (
	// ErrInvalidInput rejects unknown holes, negative durations and
	// ill-formed batches at the boundary. No state changes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoCandidate reports that dispatch found zero feasible assets.
	// The order stays Pending and is retried with backoff.
	ErrNoCandidate = errors.New("no candidate asset")

	// ErrOfferExhausted reports a full decline cascade past the retry cap.
	// The order becomes Unassignable.
	ErrOfferExhausted = errors.New("offer list exhausted")

	// ErrZoneViolation flags a cart asked to serve the other loop. This is
	// a planner bug: fatal in simulation, logged and dropped in production.
	ErrZoneViolation = errors.New("zone violation")

	// ErrOracleUnavailable reports a failed prediction call. Callers fall
	// back to deterministic defaults.
	ErrOracleUnavailable = errors.New("prediction oracle unavailable")

	// ErrOfferPending guards the one-outstanding-offer-per-asset rule.
	ErrOfferPending = errors.New("asset already holds a pending offer")

	// ErrUnknownAsset and ErrUnknownOrder reject lookups of missing ids.
	ErrUnknownAsset = errors.New("unknown asset")
	ErrUnknownOrder = errors.New("unknown order")
)
