// Package password is the credential engine for goAccount: Argon2id hashing and
// verification, the account password policy, and generation of policy-valid
// secrets for accounts that never receive a user-chosen password.
//
// # Output format
//
// Hashes are encoded in PHC string format, salt and key in unpadded base64:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports when a stored hash was produced with weaker
// parameters than the current configuration.
//
// # Policy
//
// [CheckPolicy] accepts passwords of at least eight bytes that contain an
// ASCII uppercase letter, an ASCII digit and one character from [SpecialChars].
// There is no maximum length and no Unicode class handling.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other goAccount package.
//   - Log or return plaintext passwords inside errors.
package password
