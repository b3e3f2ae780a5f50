package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/rezkam/stayops/internal/ptr"
)

// generatePageToken creates a pagination token from an offset value.
// Returns nil if there are no more pages.
func generatePageToken(offset int, hasMore bool) *string {
	if !hasMore {
		return nil
	}

	return ptr.To(base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset))))
}

// parsePageToken decodes a pagination token to get the offset.
// Returns 0 if the token is empty, invalid, or negative.
func parsePageToken(token string) int {
	if token == "" {
		return 0
	}

	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0
	}

	offset, err := strconv.Atoi(string(decoded))
	if err != nil {
		return 0
	}

	if offset < 0 {
		return 0
	}

	return offset
}

// pageParams extracts page_size and page_token query parameters. A zero
// page size lets the service layer apply its configured default.
func pageParams(r *http.Request) (limit, offset int) {
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	offset = parsePageToken(r.URL.Query().Get("page_token"))
	return limit, offset
}
