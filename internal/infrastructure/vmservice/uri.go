package vmservice

import (
	"fmt"
	"net/url"
	"strings"
)

// uriMarker is the fixed text the Dart VM prints ahead of its service URI.
// Both the current banner ("The Dart VM service is listening on ...") and
// the legacy Observatory banner carry it.
const uriMarker = "listening on "

// ExtractServiceURI scans one stdout line for the service banner.
// Returns (nil, nil) for lines without the marker. A marker line whose
// remainder is not an http(s) URI yields a ParseError.
func ExtractServiceURI(line string) (*url.URL, error) {
	idx := strings.Index(line, uriMarker)
	if idx < 0 {
		return nil, nil
	}
	candidate := strings.TrimSpace(line[idx+len(uriMarker):])
	parsed, err := url.Parse(candidate)
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, &ParseError{Line: line, Err: fmt.Errorf("not an http uri: %q", candidate)}
	}
	return parsed, nil
}

// WebSocketURL converts the announced http service URI into the websocket
// endpoint the JSON-RPC protocol is served on.
func WebSocketURL(service *url.URL) *url.URL {
	ws := *service
	if service.Scheme == "https" {
		ws.Scheme = "wss"
	} else {
		ws.Scheme = "ws"
	}
	ws.Path = strings.TrimSuffix(ws.Path, "/") + "/ws"
	return &ws
}
