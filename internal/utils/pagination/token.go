package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeToken creates a base64 encoded cursor from a match timestamp and match id.
// Match lists are ordered by (matched_at DESC, match_id DESC); the token carries
// the last row of the previous page.
func EncodeToken(matchedAt time.Time, matchID string) string {
	tokenStr := fmt.Sprintf("%s|%s", matchedAt.Format(timeFormat), matchID)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses the base64 encoded cursor back into match timestamp and match id.
func DecodeToken(token string) (time.Time, string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	tokenStr := string(decodedBytes)
	parts := strings.SplitN(tokenStr, "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (split)")
	}

	matchedAt, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (matched_at parse): %w", err)
	}

	if parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (empty match id)")
	}

	return matchedAt, parts[1], nil
}
