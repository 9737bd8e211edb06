package types

// ExecutionReport partitions an install plan after execution: which
// nodes completed, which were skipped because the same version was
// already installed, which one failed and why, and which were never
// attempted. Every plan node lands in exactly one of the four lists.
type ExecutionReport struct {
	SessionID string

	Completed    []string
	Skipped      []string
	NotAttempted []string

	Failed      string
	FailedPhase Phase

	// FailureOutput is a bounded tail of the failing step's captured
	// process output.
	FailureOutput string
}

// Ok reports whether every attempted node completed.
func (r ExecutionReport) Ok() bool {
	return r.Failed == ""
}
