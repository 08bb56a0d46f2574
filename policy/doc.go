// Package policy holds the tenant-scoping authorization rules applied to
// every resource operation.
//
// The rules are a pure function of the caller's claim and the target
// resource. Callers load the target (its organization and, for jobs, its
// poster) before asking for a decision.
package policy
