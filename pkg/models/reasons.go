// Package models contains request/response models and business domain types.
package models

// Stable reason strings carried in JSON error bodies. Clients branch on
// these for replay and retry decisions, so they never change.
const (
	ReasonInvalidRequest       = "invalid_request"
	ReasonForbidden            = "forbidden"
	ReasonHashMismatch         = "hash_mismatch"
	ReasonNotFound             = "not_found"
	ReasonRateLimited          = "rate_limited"
	ReasonConcurrencyExhausted = "concurrency_exhausted"
	ReasonPlanFailed           = "plan_failed"
	ReasonExecuteFailed        = "execute_failed"
	ReasonContextOverflow      = "context_overflow"
	ReasonGenerationFailed     = "generation_failed"
	ReasonAborted              = "aborted"
	ReasonControllerBoundary   = "controller-boundary-violation"
	ReasonSafetyVeto           = "safety_veto"
	ReasonIntegrityFailed      = "integrity_failed"
)
