// Package persist serializes the store's state into a single opaque record
// and reads it back.
//
// # Record
//
// One storage key holds the encoded form of
//
//	{"state": <root state>, "version": "<schema version>", "timestamp": <epoch ms>}
//
// # Codecs
//
// The record is passed through a Codec before it is written:
//   - Obfuscator: XOR with a key-derived pad, then base64. Reversible by anyone
//     who knows the storage key. It offers NO confidentiality; it only keeps
//     the record from being casually readable or hand-edited.
//   - Sealer: XChaCha20-Poly1305 authenticated encryption. Use it when the
//     persisted data must stay confidential. The secret is supplied by the
//     environment and never stored next to the data.
//
// # Failure policy
//
// Absent, corrupt, unparsable or stale records all read as "no saved state".
// Corruption is logged and returned as ErrCorrupt so callers can report
// health, but it is never fatal.
package persist
