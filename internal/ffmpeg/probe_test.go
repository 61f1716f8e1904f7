package ffmpeg

import "testing"

func TestParseRational(t *testing.T) {
	tests := []struct {
		input   string
		want    Rational
		wantErr bool
	}{
		{"30/1", Rational{Num: 30, Den: 1}, false},
		{"30000/1001", Rational{Num: 30000, Den: 1001}, false},
		{"25", Rational{Num: 25, Den: 1}, false},
		{"0/0", Rational{Num: 0, Den: 0}, false},
		{" 24/1 ", Rational{Num: 24, Den: 1}, false},
		{"", Rational{}, true},
		{"abc/1", Rational{}, true},
		{"30/xyz", Rational{}, true},
	}

	for _, tt := range tests {
		got, err := ParseRational(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRational(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseRational(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRationalFloat64(t *testing.T) {
	if got := (Rational{Num: 30, Den: 1}).Float64(); got != 30 {
		t.Errorf("30/1 = %v, want 30", got)
	}
	if got := (Rational{Num: 30, Den: 0}).Float64(); got != 0 {
		t.Errorf("zero denominator = %v, want 0", got)
	}
}

func TestRationalString(t *testing.T) {
	if got := (Rational{Num: 30000, Den: 1001}).String(); got != "30000/1001" {
		t.Errorf("String() = %q, want %q", got, "30000/1001")
	}
}

func TestTotalFrames(t *testing.T) {
	tests := []struct {
		name string
		meta VideoMetadata
		want int
	}{
		{
			name: "stream reports frame count",
			meta: VideoMetadata{NbFrames: 450, Duration: 10, FrameRate: Rational{Num: 30, Den: 1}},
			want: 450,
		},
		{
			name: "falls back to duration times rate",
			meta: VideoMetadata{Duration: 10, FrameRate: Rational{Num: 30, Den: 1}},
			want: 300,
		},
		{
			name: "ntsc rate truncates",
			meta: VideoMetadata{Duration: 2, FrameRate: Rational{Num: 30000, Den: 1001}},
			want: 59,
		},
		{
			name: "nothing known",
			meta: VideoMetadata{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.TotalFrames(); got != tt.want {
				t.Errorf("TotalFrames() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAspectRatio(t *testing.T) {
	m := VideoMetadata{Width: 1080, Height: 1920}
	if got := m.AspectRatio(); got != 0.5625 {
		t.Errorf("AspectRatio() = %v, want 0.5625", got)
	}
}
