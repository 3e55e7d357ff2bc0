package vmservice

import (
	"errors"
	"testing"
)

func TestExtractServiceURI(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			"current banner",
			"The Dart VM service is listening on http://127.0.0.1:8787/AbCdEf=/",
			"http://127.0.0.1:8787/AbCdEf=/",
		},
		{
			"legacy banner",
			"Observatory listening on http://127.0.0.1:8181/",
			"http://127.0.0.1:8181/",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uri, err := ExtractServiceURI(tc.line)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if uri == nil || uri.String() != tc.want {
				t.Fatalf("uri = %v, want %s", uri, tc.want)
			}
		})
	}
}

func TestExtractServiceURIOrdinaryLine(t *testing.T) {
	uri, err := ExtractServiceURI("00:01 +12: All tests passed!")
	if err != nil || uri != nil {
		t.Fatalf("expected no match, got uri=%v err=%v", uri, err)
	}
}

func TestExtractServiceURIParseError(t *testing.T) {
	_, err := ExtractServiceURI("The Dart VM service is listening on :not a uri:")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestWebSocketURL(t *testing.T) {
	uri, err := ExtractServiceURI("The Dart VM service is listening on http://127.0.0.1:8787/AbCdEf=/")
	if err != nil {
		t.Fatal(err)
	}
	ws := WebSocketURL(uri)
	if ws.String() != "ws://127.0.0.1:8787/AbCdEf=/ws" {
		t.Fatalf("ws url = %s", ws)
	}
}
