package connection

import (
	"fmt"
	"net/url"
	"strings"
)

// TargetURL derives the WebSocket address for playerID from the origin the
// client was loaded from. https and wss origins map to wss, http and ws to ws.
// The origin's own path and query are ignored.
func TargetURL(origin, path, playerID string) (string, error) {
	if playerID == "" {
		return "", ErrEmptyPlayerID
	}

	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidOrigin, origin)
	}

	var scheme string
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		scheme = "wss"
	case "http", "ws":
		scheme = "ws"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidOrigin, u.Scheme)
	}

	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target := url.URL{
		Scheme:   scheme,
		Host:     u.Host,
		Path:     path,
		RawQuery: url.Values{"playerId": []string{playerID}}.Encode(),
	}
	return target.String(), nil
}
