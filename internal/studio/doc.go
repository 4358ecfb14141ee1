// Package studio sequences a creation from request to history record.
//
// The orchestrator owns the order of operations: the quota gate runs
// before any network traffic, generation produces an artifact in the
// session staging area, the optional soundtrack merge runs next (failure
// falls back to the silent video), and only then is the creation recorded
// and a quota unit consumed.
package studio
