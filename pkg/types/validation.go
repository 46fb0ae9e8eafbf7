// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ValidationResult is the user-facing report for one reference. It is built
// incrementally by merging one result per index match plus, optionally, an
// external validator's result.
type ValidationResult struct {
	// IsValid is AND-reduced across all contributing checks.
	IsValid bool `json:"isValid" yaml:"isValid"`

	// Errors holds blocking messages (confirmed mismatches).
	Errors []string `json:"errors" yaml:"errors"`

	// Warnings holds advisory messages, including successful-match
	// confirmations: a positive match is useful context for the user, not
	// just an error signal.
	Warnings []string `json:"warnings" yaml:"warnings"`

	// Suggestions holds optional improvement hints.
	Suggestions []string `json:"suggestions" yaml:"suggestions"`
}

// ValidResult returns an empty, valid report.
func ValidResult() ValidationResult {
	return ValidationResult{IsValid: true}
}

// Merge combines two reports: IsValid is AND-reduced and the message lists
// are concatenated in order. Merge is associative, so any grouping of a
// sequence of reports yields the same final content.
func (v ValidationResult) Merge(o ValidationResult) ValidationResult {
	return ValidationResult{
		IsValid:     v.IsValid && o.IsValid,
		Errors:      append(append([]string{}, v.Errors...), o.Errors...),
		Warnings:    append(append([]string{}, v.Warnings...), o.Warnings...),
		Suggestions: append(append([]string{}, v.Suggestions...), o.Suggestions...),
	}
}

// MergeResultSets zips two result slices index-wise, merging entries that
// exist on both sides and passing through whichever side is longer. Used to
// fold an external validator's per-reference output into the engine's own.
func MergeResultSets(a, b []ValidationResult) []ValidationResult {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	merged := make([]ValidationResult, n)
	for i := 0; i < n; i++ {
		switch {
		case i >= len(a):
			merged[i] = b[i]
		case i >= len(b):
			merged[i] = a[i]
		default:
			merged[i] = a[i].Merge(b[i])
		}
	}
	return merged
}
