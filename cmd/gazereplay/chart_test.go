package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteTimeline(t *testing.T) {
	frames, err := ReadRecording(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ReadRecording error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteTimeline(&buf, frames, "sample.jsonl"); err != nil {
		t.Fatalf("WriteTimeline error: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"sample.jsonl", "gaze", "blink"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered chart missing %q", want)
		}
	}
}
