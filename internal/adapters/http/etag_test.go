package http

import "testing"

func TestETagMatches(t *testing.T) {
	const etag = `W/"0123456789abcdef"`
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{etag, true},
		{`"0123456789abcdef"`, true},
		{`W/"other", ` + etag, true},
		{"*", true},
		{`W/"other"`, false},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Errorf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
