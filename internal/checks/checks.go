// Package checks implements the standalone contract checks exposed by the
// CLI: balance thresholds, transaction presence, and mutual tag pairing.
package checks

// Result is the outcome of a single check. A failed check is a semantic
// verdict, not an error; upstream failures surface as errors instead.
type Result struct {
	Details map[string]any `json:"details,omitempty"`
	Message string         `json:"message"`
	Success bool           `json:"success"`
}

func missingParam(name string) Result {
	return Result{
		Success: false,
		Message: "Missing required parameter: " + name,
	}
}
