// Package keysource resolves the symmetric encryption key that protects
// stored tokens.
//
// Supports three key origins with different security and deployment tradeoffs:
//   - Env: key material in an environment variable (external secret management)
//   - File: a local key file with enforced 0600 permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// Sources return printable key material exactly as provisioned; decoding and
// length validation happen in the security package, where a malformed key
// fails cipher construction.
package keysource
