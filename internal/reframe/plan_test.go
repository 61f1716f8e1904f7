package reframe

import (
	"image"
	"testing"

	"github.com/shortsup/shortsup/pkg/types"
)

func TestPlan_AlreadyVertical(t *testing.T) {
	subjects := []image.Point{
		image.Pt(540, 960),
		image.Pt(0, 0),
		image.Pt(1080, 1920),
	}

	for _, subject := range subjects {
		plan := Plan(1080, 1920, subject)
		if plan.Operation != types.PlanOperationNone {
			t.Fatalf("Plan(1080, 1920, %v).Operation = %s, want none", subject, plan.Operation)
		}
	}
}

func TestPlan_NearTargetWithinTolerance(t *testing.T) {
	// 1080/1918 = 0.5631, within 0.01 of 9/16.
	plan := Plan(1080, 1918, image.Pt(540, 959))
	if plan.Operation != types.PlanOperationNone {
		t.Fatalf("near-target ratio should not be re-encoded, got %s", plan.Operation)
	}
}

func TestPlan_Landscape1080p(t *testing.T) {
	plan := Plan(1920, 1080, image.Pt(960, 540))

	if plan.Operation != types.PlanOperationCropWidth {
		t.Fatalf("operation = %s, want crop_width", plan.Operation)
	}
	if plan.Width != 607 {
		t.Errorf("crop width = %d, want 607", plan.Width)
	}
	if plan.X != 657 {
		t.Errorf("crop x = %d, want 657", plan.X)
	}
	if plan.Y != 0 || plan.Height != 1080 {
		t.Errorf("crop y/height = %d/%d, want 0/1080", plan.Y, plan.Height)
	}
}

func TestPlan_CropWidthBounds(t *testing.T) {
	cases := []struct {
		name     string
		width    int
		height   int
		subjectX int
	}{
		{"subject at left edge", 1920, 1080, 0},
		{"subject at right edge", 1920, 1080, 1920},
		{"subject beyond right edge", 1920, 1080, 5000},
		{"subject centered", 1280, 720, 640},
		{"wide 4k", 3840, 2160, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := Plan(tc.width, tc.height, image.Pt(tc.subjectX, tc.height/2))

			if plan.Operation != types.PlanOperationCropWidth {
				t.Fatalf("operation = %s, want crop_width", plan.Operation)
			}
			wantWidth := tc.height * 9 / 16
			if plan.Width != wantWidth {
				t.Errorf("crop width = %d, want %d", plan.Width, wantWidth)
			}
			if plan.X < 0 || plan.X+plan.Width > tc.width {
				t.Errorf("crop window [%d, %d) out of bounds [0, %d)",
					plan.X, plan.X+plan.Width, tc.width)
			}
			if plan.Height != tc.height {
				t.Errorf("crop height = %d, want full height %d", plan.Height, tc.height)
			}
		})
	}
}

func TestPlan_PortraitWiderThanTarget(t *testing.T) {
	// 3:4 and 4:5 are taller than wide but still wider than 9:16, so the
	// width is cropped, never padded.
	cases := []struct {
		name      string
		width     int
		height    int
		subject   image.Point
		wantWidth int
		wantX     int
	}{
		{"3:4 centered", 1080, 1440, image.Pt(540, 720), 810, 135},
		{"4:5 centered", 1080, 1350, image.Pt(540, 675), 759, 161},
		{"3:4 subject at left edge", 1080, 1440, image.Pt(0, 720), 810, 0},
		{"3:4 subject at right edge", 1080, 1440, image.Pt(1080, 720), 810, 270},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := Plan(tc.width, tc.height, tc.subject)

			if plan.Operation != types.PlanOperationCropWidth {
				t.Fatalf("operation = %s, want crop_width", plan.Operation)
			}
			if plan.Width != tc.wantWidth {
				t.Errorf("crop width = %d, want %d", plan.Width, tc.wantWidth)
			}
			if plan.X != tc.wantX {
				t.Errorf("crop x = %d, want %d", plan.X, tc.wantX)
			}
			if plan.Y != 0 || plan.Height != tc.height {
				t.Errorf("crop y/height = %d/%d, want 0/%d", plan.Y, plan.Height, tc.height)
			}
		})
	}
}

func TestPlan_CropHeight(t *testing.T) {
	// 500/1000 = 0.5 is narrower than 9:16 but tall enough to crop.
	plan := Plan(500, 1000, image.Pt(250, 500))

	if plan.Operation != types.PlanOperationCropHeight {
		t.Fatalf("operation = %s, want crop_height", plan.Operation)
	}
	wantHeight := 500 * 16 / 9
	if plan.Height != wantHeight {
		t.Errorf("crop height = %d, want %d", plan.Height, wantHeight)
	}
	if plan.X != 0 || plan.Width != 500 {
		t.Errorf("crop x/width = %d/%d, want 0/500", plan.X, plan.Width)
	}
	if plan.Y < 0 || plan.Y+plan.Height > 1000 {
		t.Errorf("crop window [%d, %d) out of bounds [0, 1000)", plan.Y, plan.Y+plan.Height)
	}
}

func TestPlan_CropHeightBounds(t *testing.T) {
	for _, subjectY := range []int{0, 500, 1000, -50} {
		plan := Plan(500, 1000, image.Pt(250, subjectY))
		if plan.Operation != types.PlanOperationCropHeight {
			t.Fatalf("operation = %s, want crop_height", plan.Operation)
		}
		if plan.Y < 0 || plan.Y+plan.Height > 1000 {
			t.Errorf("subjectY=%d: crop window [%d, %d) out of bounds",
				subjectY, plan.Y, plan.Y+plan.Height)
		}
	}
}

func TestPlan_SquareGetsPadding(t *testing.T) {
	plan := Plan(1080, 1080, image.Pt(540, 540))

	if plan.Operation != types.PlanOperationAddPadding {
		t.Fatalf("operation = %s, want add_padding", plan.Operation)
	}
	if plan.PadTotal != 840 {
		t.Errorf("pad total = %d, want 840", plan.PadTotal)
	}
	if plan.Width != 1080 || plan.Height != 1080 {
		t.Errorf("dimensions changed to %dx%d, want 1080x1080 retained", plan.Width, plan.Height)
	}

	outW, outH := plan.OutputDimensions()
	if outW != 1080 || outH != 1920 {
		t.Errorf("output dimensions = %dx%d, want 1080x1920", outW, outH)
	}
}

func TestPlan_PadTotalMatchesTarget(t *testing.T) {
	cases := []struct {
		width  int
		height int
	}{
		{1080, 1080},
		{640, 640},
		{500, 500},
	}

	for _, tc := range cases {
		plan := Plan(tc.width, tc.height, image.Pt(tc.width/2, tc.height/2))
		if plan.Operation != types.PlanOperationAddPadding {
			t.Fatalf("%dx%d: operation = %s, want add_padding", tc.width, tc.height, plan.Operation)
		}
		want := tc.width*16/9 - tc.height
		if plan.PadTotal != want {
			t.Errorf("%dx%d: pad total = %d, want %d", tc.width, tc.height, plan.PadTotal, want)
		}
	}
}

func TestPlan_Idempotent(t *testing.T) {
	inputs := []struct {
		width  int
		height int
	}{
		{1920, 1080}, // crop_width
		{500, 1000},  // crop_height
		{1080, 1080}, // add_padding
		{1080, 1920}, // none
	}

	for _, in := range inputs {
		plan := Plan(in.width, in.height, image.Pt(in.width/2, in.height/2))
		outW, outH := plan.OutputDimensions()

		again := Plan(outW, outH, image.Pt(outW/2, outH/2))
		if again.Operation != types.PlanOperationNone {
			t.Errorf("%dx%d -> %dx%d: replanning yields %s, want none",
				in.width, in.height, outW, outH, again.Operation)
		}
	}
}

func TestRatioMatches(t *testing.T) {
	cases := []struct {
		ratio float64
		want  bool
	}{
		{9.0 / 16.0, true},
		{0.57, true},
		{0.5625 + 0.0099, true},
		{0.5625 + 0.011, false},
		{16.0 / 9.0, false},
		{1.0, false},
	}

	for _, tc := range cases {
		if got := RatioMatches(tc.ratio); got != tc.want {
			t.Errorf("RatioMatches(%v) = %v, want %v", tc.ratio, got, tc.want)
		}
	}
}
