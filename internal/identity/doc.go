// Package identity manages the locally stored user profile and its
// generation quota.
//
// The profile is a single JSON file under the state directory. It carries
// identity and plan information only; passwords and tokens are never
// persisted. The free plan starts with a small generation quota that the
// orchestrator consumes one unit at a time; paid plans are not gated.
package identity
