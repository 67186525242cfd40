// internal/ruleset/hash.go
package ruleset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

/*
 * Deterministic ruleset hashing.
 *
 * Computes SHA-256 over the canonical JSON form of the merged definition,
 * before any regex compilation, so the hash is a pure function of
 * (core, overlay) and is reproducible across runs and across implementing
 * languages regardless of the host regex engine.
 *
 * Canonicalization: the typed definition is marshaled, re-decoded into
 * generic maps with json.Number, and re-marshaled. encoding/json emits map
 * keys in sorted order, which yields stable key ordering. Numbers are
 * rendered once by the first marshal from the typed structs; the UseNumber
 * pass carries that rendering through the second marshal unchanged, so
 * number formatting is a stable function of the field values.
 *
 * External systems log the hash as a versioning handle: two runs over the
 * same corpus diverge in classification logic exactly when their ruleset
 * hashes differ.
 */

// Hash returns the hex-encoded SHA-256 of the canonical JSON encoding of a
// merged definition.
func Hash(merged *Definition) (string, error) {
	canonical, err := canonicalJSON(merged)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize ruleset: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON serializes v with sorted object keys and literal number
// preservation.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	// Second marshal sorts map keys; json.Number emits the original literal
	return json.Marshal(generic)
}
