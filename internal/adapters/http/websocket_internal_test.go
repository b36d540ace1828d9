package http

import "testing"

func TestWSSubject(t *testing.T) {
	tests := []struct {
		channel, contract string
		want              string
		ok                bool
	}{
		{"", "", "freight.position.>", true},
		{"positions", "c-1", "freight.position.c-1", true},
		{"rejections", "c-1", "freight.rejected.c-1", true},
		{"rejections", "", "freight.rejected.>", true},
		{"alerts", "c-1", "", false},
		{"positions", "c-1.>", "", false},
		{"positions", "*", "", false},
	}
	for _, tt := range tests {
		got, ok := wsSubject(tt.channel, tt.contract)
		if got != tt.want || ok != tt.ok {
			t.Errorf("wsSubject(%q, %q) = %q, %v; want %q, %v", tt.channel, tt.contract, got, ok, tt.want, tt.ok)
		}
	}
}

func TestETagMatches(t *testing.T) {
	etag := `W/"abc"`
	if !etagMatches(`W/"zzz", W/"abc"`, etag) {
		t.Error("expected match in list")
	}
	if !etagMatches("*", etag) {
		t.Error("expected wildcard match")
	}
	if etagMatches(`W/"zzz"`, etag) {
		t.Error("unexpected match")
	}
}
