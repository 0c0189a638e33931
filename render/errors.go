package render

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/mobile/gl"
)

// ErrShaderAssetMissing is returned when a shader source cannot be opened or read.
var ErrShaderAssetMissing = errors.New("shader asset missing")

// ShaderCompileError carries the driver's info log for a shader that failed to compile.
type ShaderCompileError struct {
	Stage   string
	InfoLog string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.InfoLog)
}

// ProgramLinkError carries the driver's info log for a program that failed to link.
type ProgramLinkError struct {
	InfoLog string
}

func (e *ProgramLinkError) Error() string {
	return fmt.Sprintf("failed to link program: %s", e.InfoLog)
}

// GraphicsCallError reports a GL error flag raised during a phase of drawing.
type GraphicsCallError struct {
	Phase string
	Code  gl.Enum
}

func (e *GraphicsCallError) Error() string {
	return fmt.Sprintf("gl error %s after %s", glErrorName(e.Code), e.Phase)
}

func glErrorName(code gl.Enum) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("0x%04x", uint32(code))
	}
}

// maxQueuedErrors bounds how many error flags are drained per check; a lost context can report
// errors forever.
const maxQueuedErrors = 8

// checkError drains the GL error queue and reports the first flag found.
func checkError(glctx GL, phase string) error {
	var first gl.Enum
	for i := 0; i < maxQueuedErrors; i++ {
		code := glctx.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == gl.NO_ERROR {
			first = code
		}
	}
	if first == gl.NO_ERROR {
		return nil
	}
	return &GraphicsCallError{Phase: phase, Code: first}
}
