// Package password hashes and verifies account passwords with argon2id.
//
// Hashes use the PHC string format with unpadded base64 salt and key:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// [Argon2.NeedsRehash] lets the verifier upgrade stored hashes after a
// successful login when the configured cost has been raised.
//
// This package never stores passwords and never imports estateauth.
package password
