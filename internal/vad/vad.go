// Package vad classifies individual PCM samples as speech or silence using
// an amplitude threshold.
package vad

type Activity int

const (
	Silence Activity = iota
	Speech
)

func (a Activity) String() string {
	if a == Speech {
		return "speech"
	}
	return "silence"
}

// Classify reports Speech when |sample| >= threshold.
func Classify(sample int16, threshold int) Activity {
	v := int(sample)
	if v < 0 {
		v = -v
	}
	if v >= threshold {
		return Speech
	}
	return Silence
}

func IsSpeech(sample int16, threshold int) bool {
	return Classify(sample, threshold) == Speech
}
