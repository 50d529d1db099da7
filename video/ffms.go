// Package video reads decoded video frames as detection records.
package video

import (
	"errors"
	"fmt"
	"runtime"

	ffms "github.com/GreatValueCreamSoda/goffms2"
	"github.com/GreatValueCreamSoda/golandmarks/images"
	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
	"github.com/GreatValueCreamSoda/golandmarks/pipeline"
	"github.com/GreatValueCreamSoda/gopixfmts"
)

type ffmsSource struct {
	path          string
	currentIndex  int
	video         *ffms.VideoSource
	numFrame      int
	width, height int
}

// NewFFms2Reader indexes the first video track of path and returns a source
// yielding one record per frame. Each record holds a copy of the frame's luma
// plane, named "<path>#<frame>".
//
// Only 8 bit YUV formats are accepted since the luma plane is handed to the
// engine as is.
func NewFFms2Reader(path string) (pipeline.Source, error) {
	var err error

	var indexer *ffms.Indexer
	if indexer, _, err = ffms.CreateIndexer(path); err != nil {
		return nil, err
	}

	var index *ffms.Index
	if index, _, err = indexer.DoIndexing(ffms.IEHAbort); err != nil {
		return nil, err
	}

	track, _, err := index.GetFirstTrackOfType(ffms.TypeVideo)
	if err != nil {
		return nil, err
	}

	var decThreads int = runtime.NumCPU() / 2
	video, _, err := ffms.CreateVideoSource(path, index, track, decThreads,
		ffms.SeekNormal)
	if err != nil {
		return nil, err
	}

	props, err := video.GetVideoProperties()
	if err != nil {
		return nil, err
	}

	ff, _, err := video.GetFrame(0)
	if err != nil {
		return nil, err
	}

	video.SetOutputFormatV2([]int{ff.EncodedPixelFormat}, ff.EncodedWidth,
		ff.EncodedHeight, ffms.ResizerBicubic)

	ff, _, err = video.GetFrame(0)
	if err != nil {
		return nil, err
	}

	if err := checkLumaFormat(&ff); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &ffmsSource{path: path, video: video, numFrame: props.NumFrames,
		width: int(ff.ScaledWidth), height: int(ff.ScaledHeight)}, nil
}

// checkLumaFormat verifies that plane 0 of frame is an 8 bit luma plane.
func checkLumaFormat(frame *ffms.Frame) error {
	pixelFormat, err := gopixfmts.PixFmtDescGet(gopixfmts.PixelFormat(
		frame.ConvertedPixelFormat))
	if err != nil {
		return err
	}

	if pixelFormat.Flags()&uint64(gopixfmts.PixFmtFlagRGB) != 0 {
		return errors.New("rgb pixel formats have no luma plane")
	}

	comp, err := pixelFormat.Component(0)
	if err != nil {
		return err
	}

	if comp.Depth != 8 {
		return fmt.Errorf("unsupported luma depth of %d bits, only 8 bit "+
			"video is supported", comp.Depth)
	}

	return nil
}

func (s *ffmsSource) Next() (landmarks.Record, error) {
	ffmsFrame, _, err := s.video.GetFrame(s.currentIndex)
	if err != nil {
		return nil, err
	}

	img, err := images.FromPlane(ffmsFrame.Data[0], ffmsFrame.Linesize[0],
		s.width, s.height)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", s.currentIndex, err)
	}

	name := fmt.Sprintf("%s#%d", s.path, s.currentIndex)
	s.currentIndex++
	return landmarks.NewTemplate(name, img), nil
}

func (s *ffmsSource) NumItems() int { return s.numFrame }
