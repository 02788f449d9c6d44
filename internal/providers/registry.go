package vendor

// Priority levels assigned to the three bundled vendor parsers during
// auto-detection (§4.2). Claude's wire shape is the most distinctive
// (explicit `type` discriminator), Amp's next (`vendor:"amp"` or the
// `{phase, tool, ...}` shape), and Gemini's free-form-text fallback is tried
// last since it accepts nearly anything that isn't JSON.
const (
	PriorityClaude = 30
	PriorityAmp    = 20
	PriorityGemini = 10
)
