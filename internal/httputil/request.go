package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyBytes caps request bodies. Document content snapshots are the
// largest payloads we accept; 5MB leaves generous headroom.
const maxBodyBytes = 5 << 20

// ParseJSON decodes JSON from the request body into the given destination.
// The body is size-limited so MaxBytesReader can answer with 413 on abuse.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	// Unknown fields are tolerated here; domain validators reject what
	// matters. This keeps older clients working across additive changes.

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
