package vad

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		sample    int16
		threshold int
		want      Activity
	}{
		{name: "zero", sample: 0, threshold: 120, want: Silence},
		{name: "below", sample: 119, threshold: 120, want: Silence},
		{name: "at threshold", sample: 120, threshold: 120, want: Speech},
		{name: "negative at threshold", sample: -120, threshold: 120, want: Speech},
		{name: "negative below", sample: -119, threshold: 120, want: Silence},
		{name: "min int16", sample: -32768, threshold: 32768, want: Speech},
		{name: "max int16", sample: 32767, threshold: 32768, want: Silence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.sample, tt.threshold); got != tt.want {
				t.Fatalf("Classify(%d, %d) = %s, want %s", tt.sample, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestIsSpeech(t *testing.T) {
	if !IsSpeech(3000, 120) {
		t.Fatal("expected speech")
	}
	if IsSpeech(3, 120) {
		t.Fatal("expected silence")
	}
}
