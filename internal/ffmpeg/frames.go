package ffmpeg

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ReadFrame decodes the frame at the given index as an image. The frame is
// extracted as a single MJPEG image over a pipe, so no intermediate file
// is written.
func (p *Processor) ReadFrame(inputPath string, frameIndex int) (image.Image, error) {
	buf := bytes.NewBuffer(nil)

	err := ffmpeg.Input(inputPath).
		Filter("select", ffmpeg.Args{fmt.Sprintf("gte(n,%d)", frameIndex)}).
		Output("pipe:", ffmpeg.KwArgs{
			"vframes": 1,
			"format":  "image2",
			"vcodec":  "mjpeg",
		}).
		WithOutput(buf, io.Discard).
		Silent(true).
		Run()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to extract frame %d from %s", frameIndex, inputPath)
	}
	if buf.Len() == 0 {
		return nil, errors.Errorf("no frame data at index %d in %s", frameIndex, inputPath)
	}

	img, err := imaging.Decode(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode frame %d from %s", frameIndex, inputPath)
	}

	return img, nil
}
