// Package order implements the admission-and-execution pipeline: the bounded
// admission queue, the dispatcher, the per-order state machine, and the retry
// policy.
package order

// Order lifecycle statuses. An order moves PENDING -> ROUTING -> BUILDING ->
// SUBMITTED and ends in CONFIRMED or FAILED; a failed attempt below the retry
// limit loops back to PENDING.
const (
	StatusPending   = "PENDING"
	StatusRouting   = "ROUTING"
	StatusBuilding  = "BUILDING"
	StatusSubmitted = "SUBMITTED"
	StatusConfirmed = "CONFIRMED"
	StatusFailed    = "FAILED"
)
