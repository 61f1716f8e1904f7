package types

// PlanOperation identifies how a clip must be transformed to reach the
// 9:16 target ratio.
type PlanOperation string

const (
	PlanOperationNone       PlanOperation = "none"
	PlanOperationCropWidth  PlanOperation = "crop_width"
	PlanOperationCropHeight PlanOperation = "crop_height"
	PlanOperationAddPadding PlanOperation = "add_padding"
)

// CropPlan is the geometry a transform executor applies to a source video.
// For crop operations X/Y/Width/Height describe the source rectangle to
// extract. For add_padding Width/Height keep the original dimensions and
// PadTotal is the number of rows added along the height axis, split evenly
// top and bottom with any odd remainder going to the bottom.
type CropPlan struct {
	Operation PlanOperation `json:"operation"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	PadTotal  int           `json:"pad_total,omitempty"`
}

// NeedsTransform reports whether the plan requires re-encoding at all.
func (p CropPlan) NeedsTransform() bool {
	return p.Operation != PlanOperationNone
}

// OutputDimensions returns the dimensions of the video after the plan is
// applied.
func (p CropPlan) OutputDimensions() (width, height int) {
	if p.Operation == PlanOperationAddPadding {
		return p.Width, p.Height + p.PadTotal
	}
	return p.Width, p.Height
}

// DetectionKind labels the detector that produced a subject detection.
type DetectionKind string

const (
	DetectionKindFace DetectionKind = "face"
	DetectionKindBody DetectionKind = "body"
)

// FileStatus classifies a scanned video file against the upload history
// and the target aspect ratio.
type FileStatus string

const (
	FileStatusNew        FileStatus = "new"
	FileStatusDuplicate  FileStatus = "duplicate"
	FileStatusRetry      FileStatus = "retry"
	FileStatusWrongRatio FileStatus = "wrong_ar"
	FileStatusInvalid    FileStatus = "invalid"
)
