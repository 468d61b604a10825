package audio

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func encodeSplit(t *testing.T, data []byte, sizes ...int) string {
	t.Helper()
	var out bytes.Buffer
	enc := NewBase64Writer(&out)
	rest := data
	for i := 0; len(rest) > 0; i++ {
		n := len(rest)
		if len(sizes) > 0 {
			n = min(sizes[i%len(sizes)], len(rest))
		}
		if _, err := enc.Write(rest[:n]); err != nil {
			t.Fatalf("expected no write error, got %v", err)
		}
		rest = rest[n:]
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("expected no close error, got %v", err)
	}
	return out.String()
}

func TestBase64Writer_SplitInvariance(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	want := base64.StdEncoding.EncodeToString(data)

	splits := [][]int{
		nil,
		{1},
		{2},
		{3},
		{1, 2},
		{5, 1, 4},
		{997},
		{64, 7, 2},
	}
	for _, sizes := range splits {
		if got := encodeSplit(t, data, sizes...); got != want {
			t.Fatalf("split %v: expected %d chars matching std encoding, got %d chars", sizes, len(want), len(got))
		}
	}
}

func TestBase64Writer_Tails(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "M", want: "TQ=="},
		{in: "Ma", want: "TWE="},
		{in: "Man", want: "TWFu"},
	}
	for _, tt := range tests {
		if got := encodeSplit(t, []byte(tt.in), 1); got != tt.want {
			t.Fatalf("expected %q for %q, got %q", tt.want, tt.in, got)
		}
	}
}

func TestBase64Writer_WriteAfterClose(t *testing.T) {
	var out bytes.Buffer
	enc := NewBase64Writer(&out)
	if err := enc.Close(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := enc.Write([]byte("x")); err == nil {
		t.Fatal("expected error writing to closed encoder")
	}
}
