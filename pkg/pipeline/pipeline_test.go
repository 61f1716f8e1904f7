package pipeline

import "testing"

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/videos/clip.mp4", "/videos/clip_crop916.mp4"},
		{"clip.mov", "clip_crop916.mov"},
		{"/videos/no_ext", "/videos/no_ext_crop916"},
		{"/videos/dot.ted.mp4", "/videos/dot.ted_crop916.mp4"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.input); got != tt.want {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"clip.mp4", "clip"},
		{"My Vacation Day 3.mp4", "My Vacation Day 3"},
		{"weird!!chars##.mov", "weird_chars"},
		{"___.mp4", "untitled"},
		{"a__b.mp4", "a_b"},
	}
	for _, tt := range tests {
		if got := TitleFromFilename(tt.input); got != tt.want {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
