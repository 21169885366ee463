// Package canonjson renders values as canonical JSON: object keys sorted
// ascending, array order preserved, number literals untouched. Certificate
// hashes and session integrity hashes are computed over this form, so the
// byte output for a given value must never change between releases.
package canonjson

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal returns the canonical JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	// Normalize through encoding/json first so struct tags, omitempty,
	// and custom marshalers all apply before canonicalization.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal for canonicalization: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber() // keep number literals byte-exact
	var node any
	if err := dec.Decode(&node); err != nil {
		return nil, fmt.Errorf("decode for canonicalization: %w", err)
	}

	var buf bytes.Buffer
	if err := write(&buf, node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns the lowercase hex SHA-256 of the canonical JSON of v.
func Hash(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func write(buf *bytes.Buffer, node any) error {
	switch n := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(keyJSON)
			buf.WriteByte(':')
			if err := write(buf, n[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range n {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := write(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.Number:
		buf.WriteString(n.String())
	case nil:
		buf.WriteString("null")
	default:
		// strings and bools
		scalar, err := json.Marshal(n)
		if err != nil {
			return err
		}
		buf.Write(scalar)
	}
	return nil
}
