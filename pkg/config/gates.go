package config

// Gates holds feature toggles. All default to off; the AGI surface is
// opt-in per deployment.
type Gates struct {
	// EnableAGI exposes the /api/agi surface at all.
	EnableAGI bool

	// EnableAGIAuth requires an owner identity on session endpoints.
	// When off, anonymous access is scoped to the "anonymous" owner.
	EnableAGIAuth bool

	// EnableTraceAPI exposes the training-trace export endpoint.
	EnableTraceAPI bool

	// EnableEssence includes persona context in prompt assembly.
	EnableEssence bool

	// AllowMockStream permits the synthesized tool-log stream outside
	// development (QI_SNAP_ALLOW_MOCK). Loopback clients are always
	// permitted.
	AllowMockStream bool
}
