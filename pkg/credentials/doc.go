// Package credentials checks passwords without ever letting the
// application read the stored hash.
//
// The privilege model: the application's database role has no select grant
// on the password_hash column. Two SECURITY DEFINER functions, owned by a
// more privileged role, expose exactly two narrow operations:
//
//   - auth_get_salt(account_id) returns the non-secret salt prefix of the
//     stored hash (algorithm, parameters and salt; never the digest)
//   - auth_valid_password_hash(account_id, hash) compares a caller-supplied
//     full hash against the stored one and returns only a boolean
//
// A password check therefore goes: fetch the salt prefix, recompute the
// full Argon2id hash for the candidate password in-process, and ask the
// database whether it matches. An attacker holding the application's
// ordinary database credentials can brute-force one guess per round trip
// but can never dump the hashes.
//
// Both functions pin search_path to "public, pg_temp" so a hostile schema
// cannot hijack name resolution inside the elevated context.
//
// Setup (CreateAuthFunctions, GrantAuthFunctionAccess) and teardown
// (DropAuthFunctions) are idempotent administrative operations run by
// cmd/dbsetup with the admin role, not by the request-serving runtime.
package credentials
