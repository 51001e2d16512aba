// Package tokenstore provides encrypted persistent storage for OAuth
// credentials.
//
// Records are keyed by token type (access, refresh) and always hold
// ciphertext produced by the security package; plaintext exists only in
// process memory. Two backends with different deployment tradeoffs are
// supported:
//   - Redis: one namespaced key per token type, with the backend's native
//     TTL as a secondary expiry guard
//   - File: the whole record mapping in a single encrypted blob, written
//     atomically with 0600 permissions
//
// The backend is chosen once at construction. When a Redis URL is
// configured the server is probed, and an unreachable server selects the
// file backend for the Store's entire lifetime; there is no mid-session
// re-probing, so every token written in one session is read back from the
// same place.
//
// Expiry is lazy: Get treats records past their expires_at as absent no
// matter what the backend still holds, so a stale backend entry can never
// resurrect an expired credential.
package tokenstore
