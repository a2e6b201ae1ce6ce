// Package adapter defines the persistence contract consumed by the
// authentication core, together with the entity shapes it stores.
//
// An Adapter backs four record types: users, accounts (external identity
// links), database sessions and verification tokens. Any storage engine can
// implement the interface; the core never caches records across requests, so
// implementations own all durable state.
//
// Implementations must follow two rules:
//
//   - "Not found" is never an error. Lookup methods return (nil, nil) when
//     the record does not exist and reserve non-nil errors for genuine
//     backend failure.
//   - UseVerificationToken performs an atomic find-and-delete. Two
//     concurrent redemption attempts for the same token must produce exactly
//     one winner.
//
// The memory, postgres and redis subpackages provide ready implementations.
package adapter
