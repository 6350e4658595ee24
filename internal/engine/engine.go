// Package engine runs one provisioning session end to end: resolve the
// template source, tie its release to the process cleanup scope, then run
// the step sequence.
package engine

// The implementation is split across files:
// - jumpstart.go: run orchestration
// - factory.go: dependency construction from settings
// - safegroup.go: panic-safe execution of the sequence
// - interfaces.go: collaborators the engine accepts
