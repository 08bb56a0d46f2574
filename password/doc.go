// Package password hashes and verifies account passwords.
//
// New returns a [Multi] hasher. New hashes use the configured algorithm
// (bcrypt cost 10 by default, argon2id optionally). Verification accepts
// either encoding and dispatches on the stored prefix:
//
//	$2a$ / $2b$ / $2y$   bcrypt
//	$argon2id$v=19$...   argon2id in PHC string format
//
// [Multi.NeedsRehash] reports hashes written under another algorithm or with
// weaker parameters so callers can re-hash after a successful login.
//
// Length limits apply to the raw bytes of the password. Plaintext is never
// logged or stored by this package.
package password
