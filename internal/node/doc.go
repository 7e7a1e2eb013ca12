// Package node defines the contract between adapters and the host that runs
// them: input and output items, per-item parameters, the failure policy and
// the error kinds adapters raise.
//
// Adapters never decide on their own whether a failed item aborts a run.
// They return a result or an error for each item through ProcessItems and the
// caller-supplied Policy decides.
package node
