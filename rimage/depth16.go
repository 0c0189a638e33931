// Package rimage decodes raw time-of-flight depth images.
package rimage

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// RangeMask selects the millimetre range bits of a DEPTH16 sample.
	RangeMask = 0x1FFF
	// ConfidenceShift is the bit offset of the 3-bit confidence code.
	ConfidenceShift = 13
	// ConfidenceMask selects the confidence code after shifting.
	ConfidenceMask = 0x7

	metresPerMillimetre = 0.001
)

// ErrFrameDimensionMismatch is matched by every FrameDimensionMismatchError.
var ErrFrameDimensionMismatch = errors.New("depth frame dimensions do not match")

// FrameDimensionMismatchError is returned when a raw frame cannot be decoded into the expected
// raster without reading out of bounds.
type FrameDimensionMismatchError struct {
	ExpectedWidth, ExpectedHeight int
	Width, Height, Stride         int
	Samples                       int
}

func (e *FrameDimensionMismatchError) Error() string {
	return fmt.Sprintf("%v: expected %dx%d, got %dx%d (stride %d, %d samples)",
		ErrFrameDimensionMismatch, e.ExpectedWidth, e.ExpectedHeight, e.Width, e.Height, e.Stride, e.Samples)
}

// Is lets errors.Is match against ErrFrameDimensionMismatch.
func (e *FrameDimensionMismatchError) Is(target error) bool {
	return target == ErrFrameDimensionMismatch
}

// SamplingPolicy decides which input row an output row is read from.
type SamplingPolicy int

const (
	// RowHalving reads output rows 2k and 2k+1 from input row k. This is how ToF sensors on the
	// supported handsets have always been sampled.
	RowHalving SamplingPolicy = iota
	// FullRows reads output row y from input row y.
	FullRows
)

func (p SamplingPolicy) String() string {
	switch p {
	case RowHalving:
		return "row-halving"
	case FullRows:
		return "full-rows"
	default:
		return fmt.Sprintf("SamplingPolicy(%d)", int(p))
	}
}

// SamplingPolicyFromString parses the names produced by SamplingPolicy.String.
func SamplingPolicyFromString(name string) (SamplingPolicy, error) {
	switch name {
	case "row-halving":
		return RowHalving, nil
	case "full-rows":
		return FullRows, nil
	}
	return RowHalving, errors.Errorf("unknown sampling policy %q", name)
}

// InputRow returns the input row sampled for output row y.
func (p SamplingPolicy) InputRow(y int) int {
	if p == FullRows {
		return y
	}
	return y / 2
}

// RawDepthFrame is a borrowed DEPTH16 image. Each sample holds the range in millimetres in its
// low 13 bits and a confidence code in bits 13-15.
type RawDepthFrame struct {
	Width  int
	Height int
	// Stride is the row stride in samples, not bytes.
	Stride  int
	Samples []uint16
}

// DecodedFrame holds range in metres and confidence in [0,1], both row-major with Width*Height
// entries.
type DecodedFrame struct {
	Width      int
	Height     int
	Range      []float32
	Confidence []float32
}

// NewDecodedFrame allocates a workspace for width*height pixels.
func NewDecodedFrame(width, height int) *DecodedFrame {
	return &DecodedFrame{
		Width:      width,
		Height:     height,
		Range:      make([]float32, width*height),
		Confidence: make([]float32, width*height),
	}
}

// DecodeSample splits one DEPTH16 sample into range in metres and display confidence. A
// confidence code of 0 means unknown and is treated as fully confident.
func DecodeSample(sample uint16) (float32, float32) {
	rangeMM := sample & RangeMask
	code := (sample >> ConfidenceShift) & ConfidenceMask

	confidence := float32(1)
	if code != 0 {
		confidence = float32(code-1) / 7
	}
	return metresPerMillimetre * float32(rangeMM), confidence
}

// DepthDecoder unpacks raw frames of a fixed nominal size into a reused DecodedFrame. It is not
// safe for concurrent use; the producer owns it.
type DepthDecoder struct {
	width, height int
	policy        SamplingPolicy
	out           *DecodedFrame
}

// NewDepthDecoder returns a decoder for frames of width x height.
func NewDepthDecoder(width, height int, policy SamplingPolicy) *DepthDecoder {
	return &DepthDecoder{
		width:  width,
		height: height,
		policy: policy,
		out:    NewDecodedFrame(width, height),
	}
}

// Policy returns the decoder's sampling policy.
func (d *DepthDecoder) Policy() SamplingPolicy {
	return d.policy
}

// Decode unpacks frame into the decoder's workspace and returns it. The returned frame is only
// valid until the next call. On error nothing in the workspace is modified.
func (d *DepthDecoder) Decode(frame RawDepthFrame) (*DecodedFrame, error) {
	if err := d.checkBounds(frame); err != nil {
		return nil, err
	}

	out := d.out
	if d.width == 0 || d.height == 0 {
		return out, nil
	}
	for y := 0; y < d.height; y++ {
		in := frame.Samples[d.policy.InputRow(y)*frame.Stride:]
		row := y * d.width
		for x := 0; x < d.width; x++ {
			out.Range[row+x], out.Confidence[row+x] = DecodeSample(in[x])
		}
	}
	return out, nil
}

func (d *DepthDecoder) checkBounds(frame RawDepthFrame) error {
	mismatch := func() error {
		return &FrameDimensionMismatchError{
			ExpectedWidth:  d.width,
			ExpectedHeight: d.height,
			Width:          frame.Width,
			Height:         frame.Height,
			Stride:         frame.Stride,
			Samples:        len(frame.Samples),
		}
	}
	if frame.Width != d.width || frame.Height != d.height || frame.Stride < 0 {
		return mismatch()
	}
	if d.width == 0 || d.height == 0 {
		return nil
	}
	// The furthest sample read is the last column of the last sampled row.
	last := d.policy.InputRow(d.height-1)*frame.Stride + d.width - 1
	if last >= len(frame.Samples) {
		return mismatch()
	}
	return nil
}
