// Package session decides how session state is carried and renewed.
//
// Two strategies exist. The database strategy stores an opaque random token
// via the configured Adapter and validates each request against the stored
// record. The jwt strategy encodes the whole session into a signed (and
// optionally encrypted) token; nothing is persisted server-side, so
// revocation before expiry is only possible through secret rotation.
//
// Strategy selection follows the adapter: when one is configured the
// database strategy is the default, otherwise jwt. An explicit strategy
// always wins. The one exception is credentials sign-ins, which the core
// forces to jwt because no verified durable identity backs them.
//
// Renewal is rolling but throttled: a session is only re-persisted (or
// re-encoded) when more than UpdateAge has passed since the window was last
// extended, capping write amplification for hot sessions at one update per
// UpdateAge.
package session
