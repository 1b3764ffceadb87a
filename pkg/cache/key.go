package cache

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/url"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Key derives the cache key of a request from its method, path, query and
// body. Query parameters are sorted, and JSON bodies are compacted with
// sorted object keys before hashing, so equivalent requests share a key.
func Key(method, path string, query url.Values, body []byte) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(path)
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	b.WriteByte('#')
	b.WriteString(Fingerprint(body))
	return b.String()
}

// Fingerprint returns a 128-bit BLAKE2b hex digest of body, or "" when the
// body is empty.
func Fingerprint(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	h, _ := blake2b.New(16, nil)
	h.Write(canonical(body))
	return hex.EncodeToString(h.Sum(nil))
}

// canonical re-encodes a JSON body with sorted keys and no whitespace.
// Numbers keep their literal text so large integers stay distinct.
func canonical(body []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return body
	}
	if _, err := dec.Token(); err != io.EOF {
		return body
	}
	out, err := json.Marshal(v)
	if err != nil {
		return body
	}
	return out
}
