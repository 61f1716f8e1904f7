package ffmpeg

import (
	"strconv"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/shortsup/shortsup/pkg/types"
)

// EncodeSettings holds the codec parameters used when re-encoding a
// reframed video.
type EncodeSettings struct {
	VideoCodec string
	AudioCodec string
	Preset     string
	CRF        int
}

// DefaultEncodeSettings returns the H.264/AAC settings used for Shorts
// output.
func DefaultEncodeSettings() EncodeSettings {
	return EncodeSettings{
		VideoCodec: "libx264",
		AudioCodec: "aac",
		Preset:     "medium",
		CRF:        23,
	}
}

// ApplyPlan re-encodes the input video with the plan's crop or pad
// geometry applied. The audio track is carried through when hasAudio is
// true and omitted otherwise. A plan with operation "none" is a no-op.
func (p *Processor) ApplyPlan(inputPath, outputPath string, plan types.CropPlan, hasAudio bool) error {
	if !plan.NeedsTransform() {
		p.logger.Debug("plan requires no transform", "path", inputPath)
		return nil
	}

	settings := DefaultEncodeSettings()

	input := ffmpeg.Input(inputPath)
	video := input.Video()

	switch plan.Operation {
	case types.PlanOperationCropWidth, types.PlanOperationCropHeight:
		video = video.Filter("crop", ffmpeg.Args{
			strconv.Itoa(plan.Width),
			strconv.Itoa(plan.Height),
			strconv.Itoa(plan.X),
			strconv.Itoa(plan.Y),
		})
		p.logger.Info("applying crop",
			"path", inputPath,
			"width", plan.Width,
			"height", plan.Height,
			"x", plan.X,
			"y", plan.Y,
		)

	case types.PlanOperationAddPadding:
		totalHeight := plan.Height + plan.PadTotal
		padTop := plan.PadTotal / 2 // odd remainder lands on the bottom bar
		video = video.Filter("pad", ffmpeg.Args{
			strconv.Itoa(plan.Width),
			strconv.Itoa(totalHeight),
			"0",
			strconv.Itoa(padTop),
			"black",
		})
		p.logger.Info("applying padding",
			"path", inputPath,
			"width", plan.Width,
			"total_height", totalHeight,
			"pad_total", plan.PadTotal,
		)

	default:
		return errors.Errorf("unknown plan operation: %s", plan.Operation)
	}

	outputKwargs := ffmpeg.KwArgs{
		"c:v":    settings.VideoCodec,
		"preset": settings.Preset,
		"crf":    strconv.Itoa(settings.CRF),
	}

	var out *ffmpeg.Stream
	if hasAudio {
		outputKwargs["c:a"] = settings.AudioCodec
		out = ffmpeg.Output([]*ffmpeg.Stream{video, input.Audio()}, outputPath, outputKwargs)
	} else {
		out = video.Output(outputPath, outputKwargs)
	}

	err := out.OverWriteOutput().ErrorToStdOut().Run()
	if err != nil {
		return errors.Wrapf(err, "failed to transform %s", inputPath)
	}

	return nil
}
