package render

import (
	"fmt"
	"image"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"golang.org/x/mobile/gl"

	"go.viam.com/tofviewer/logging"
	"go.viam.com/tofviewer/pointcloud"
	"go.viam.com/tofviewer/testutils/inject"
)

var shaderFS = fstest.MapFS{
	VertexShaderAsset:   &fstest.MapFile{Data: []byte("attribute vec3 a_Position;")},
	FragmentShaderAsset: &fstest.MapFile{Data: []byte("void main() {}")},
}

func newTestRenderer(t *testing.T, assets fstest.MapFS) (*Renderer, *pointcloud.FrameBuffers) {
	t.Helper()
	buffers := pointcloud.NewFrameBuffers(240, 180)
	return NewRenderer(buffers, 240, 180, FSAssets(assets), logging.NewTestLogger(t)), buffers
}

func publishPoints(t *testing.T, buffers *pointcloud.FrameBuffers, n int) {
	t.Helper()
	slot := buffers.BeginProduce()
	for i := 0; i < n*pointcloud.FloatsPerPoint; i++ {
		slot.Vertices[i] = 0.5
		slot.Colors[i] = 1
	}
	test.That(t, buffers.Publish(n), test.ShouldBeNil)
}

func indexOf(calls []string, call string) int {
	for i, c := range calls {
		if c == call {
			return i
		}
	}
	return -1
}

func TestRendererInit(t *testing.T) {
	r, _ := newTestRenderer(t, shaderFS)
	test.That(t, r.State(), test.ShouldEqual, Uninitialized)

	glctx := &inject.GL{}
	test.That(t, r.OnSurfaceCreated(glctx), test.ShouldBeNil)
	test.That(t, r.State(), test.ShouldEqual, Ready)

	calls := glctx.Calls()
	for _, name := range []string{positionAttribName, colorAttribName} {
		test.That(t, calls, test.ShouldContain, fmt.Sprintf("GetAttribLocation(%s)", name))
	}
	for _, name := range []string{pointSizeUniformName, rotationUniformName} {
		test.That(t, calls, test.ShouldContain, fmt.Sprintf("GetUniformLocation(%s)", name))
	}
	test.That(t, indexOf(calls, "LinkProgram(3)"), test.ShouldBeGreaterThan, indexOf(calls, "AttachShader(3,2)"))
	test.That(t, calls, test.ShouldContain, "UseProgram(3)")
}

func TestRendererMissingAsset(t *testing.T) {
	r, buffers := newTestRenderer(t, fstest.MapFS{
		VertexShaderAsset: shaderFS[VertexShaderAsset],
	})
	glctx := &inject.GL{}

	err := r.OnSurfaceCreated(glctx)
	test.That(t, errors.Is(err, ErrShaderAssetMissing), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, FragmentShaderAsset)
	test.That(t, r.State(), test.ShouldEqual, Uninitialized)
	test.That(t, glctx.Calls(), test.ShouldBeEmpty)

	// draw is a no-op until a retry succeeds
	publishPoints(t, buffers, 10)
	test.That(t, r.Draw(Frame{Size: image.Pt(1920, 1080), Zoom: 1}), test.ShouldBeNil)
	test.That(t, glctx.Calls(), test.ShouldBeEmpty)
}

func TestRendererCompileErrorThenRetry(t *testing.T) {
	r, _ := newTestRenderer(t, shaderFS)
	glctx := &inject.GL{
		GetShaderiFunc: func(s gl.Shader, pname gl.Enum) int {
			if s.Value == 2 {
				return 0
			}
			return 1
		},
		GetShaderInfoLogFunc: func(gl.Shader) string { return "0:1: syntax error" },
	}

	err := r.OnSurfaceCreated(glctx)
	var compileErr *ShaderCompileError
	test.That(t, errors.As(err, &compileErr), test.ShouldBeTrue)
	test.That(t, compileErr.Stage, test.ShouldEqual, "fragment")
	test.That(t, compileErr.InfoLog, test.ShouldEqual, "0:1: syntax error")
	test.That(t, r.State(), test.ShouldEqual, Uninitialized)
	// both shaders are released and no program is created
	calls := glctx.Calls()
	test.That(t, calls, test.ShouldContain, "DeleteShader(1)")
	test.That(t, calls, test.ShouldContain, "DeleteShader(2)")
	test.That(t, calls, test.ShouldNotContain, "CreateProgram()")

	test.That(t, r.OnSurfaceCreated(&inject.GL{}), test.ShouldBeNil)
	test.That(t, r.State(), test.ShouldEqual, Ready)
}

func TestRendererLinkError(t *testing.T) {
	r, _ := newTestRenderer(t, shaderFS)
	glctx := &inject.GL{
		GetProgramiFunc:       func(gl.Program, gl.Enum) int { return 0 },
		GetProgramInfoLogFunc: func(gl.Program) string { return "a_Color: type mismatch" },
	}

	err := r.OnSurfaceCreated(glctx)
	var linkErr *ProgramLinkError
	test.That(t, errors.As(err, &linkErr), test.ShouldBeTrue)
	test.That(t, linkErr.InfoLog, test.ShouldEqual, "a_Color: type mismatch")
	test.That(t, glctx.Calls(), test.ShouldContain, "DeleteProgram(3)")
	test.That(t, r.State(), test.ShouldEqual, Uninitialized)
}

func TestRendererDrawEmpty(t *testing.T) {
	r, buffers := newTestRenderer(t, shaderFS)
	glctx := &inject.GL{}
	test.That(t, r.OnSurfaceCreated(glctx), test.ShouldBeNil)

	for _, n := range []int{-1, 0} {
		if n == 0 {
			publishPoints(t, buffers, 0)
		}
		glctx.ResetCalls()
		test.That(t, r.Draw(Frame{Size: image.Pt(1920, 1080), Zoom: 1}), test.ShouldBeNil)
		test.That(t, glctx.Calls(), test.ShouldResemble, []string{
			fmt.Sprintf("Disable(%d)", gl.SCISSOR_TEST),
			"Viewport(0,0,1920,1080)",
			"ClearColor(0,0,0,1)",
			fmt.Sprintf("Clear(%d)", gl.COLOR_BUFFER_BIT),
		})
	}
}

func TestRendererDrawLandscape(t *testing.T) {
	r, buffers := newTestRenderer(t, shaderFS)
	uniforms := map[int32]float32{}
	drawn := -1
	glctx := &inject.GL{
		Uniform1fFunc:  func(dst gl.Uniform, v float32) { uniforms[dst.Value] = v },
		DrawArraysFunc: func(mode gl.Enum, first, count int) { drawn = count },
	}
	test.That(t, r.OnSurfaceCreated(glctx), test.ShouldBeNil)
	publishPoints(t, buffers, 100)
	glctx.ResetCalls()

	test.That(t, r.Draw(Frame{Size: image.Pt(1920, 1080), Rotation: Rotation90, Zoom: 1}), test.ShouldBeNil)

	calls := glctx.Calls()
	test.That(t, drawn, test.ShouldEqual, 100)
	test.That(t, calls, test.ShouldContain, fmt.Sprintf("DrawArrays(%d,0,100)", gl.POINTS))
	test.That(t, calls, test.ShouldContain, "Scissor(240,0,1440,1080)")
	test.That(t, calls, test.ShouldContain, "Viewport(240,0,1440,1080)")
	test.That(t, calls, test.ShouldContain, fmt.Sprintf("BufferData(%d)", 100*pointcloud.BytesPerPoint))

	position := glctx.AttribLocation(positionAttribName).Value
	color := glctx.AttribLocation(colorAttribName).Value
	for _, attrib := range []uint{position, color} {
		test.That(t, calls, test.ShouldContain, fmt.Sprintf("EnableVertexAttribArray(%d)", attrib))
		test.That(t, calls, test.ShouldContain, fmt.Sprintf("VertexAttribPointer(%d,3,false,12,0)", attrib))
	}

	test.That(t, uniforms[glctx.UniformLocation(pointSizeUniformName).Value], test.ShouldEqual, float32(8))
	test.That(t, uniforms[glctx.UniformLocation(rotationUniformName).Value], test.ShouldEqual, float32(-90))

	// state is restored after the draw
	tail := calls[indexOf(calls, fmt.Sprintf("DrawArrays(%d,0,100)", gl.POINTS))+1:]
	test.That(t, tail, test.ShouldResemble, []string{
		fmt.Sprintf("DisableVertexAttribArray(%d)", position),
		"BindBuffer(0)",
		fmt.Sprintf("Disable(%d)", gl.SCISSOR_TEST),
		"Scissor(0,0,1920,1080)",
		"Viewport(0,0,1920,1080)",
		"ClearColor(0,0,0,1)",
		"ColorMask(true,true,true,true)",
	})
}

func TestRendererDrawPortraitZoom(t *testing.T) {
	r, buffers := newTestRenderer(t, shaderFS)
	glctx := &inject.GL{}
	test.That(t, r.OnSurfaceCreated(glctx), test.ShouldBeNil)
	publishPoints(t, buffers, 1)
	glctx.ResetCalls()

	test.That(t, r.Draw(Frame{Size: image.Pt(1080, 1920), Rotation: Rotation270, Zoom: 0.5}), test.ShouldBeNil)
	calls := glctx.Calls()
	test.That(t, calls, test.ShouldContain, "Viewport(270,600,540,720)")
	test.That(t, calls, test.ShouldContain, "Scissor(270,600,540,720)")
	test.That(t, calls, test.ShouldContain,
		fmt.Sprintf("Uniform1f(%d,90)", glctx.UniformLocation(rotationUniformName).Value))
}

func TestRendererDrawGLError(t *testing.T) {
	r, buffers := newTestRenderer(t, shaderFS)
	pending := gl.Enum(gl.NO_ERROR)
	glctx := &inject.GL{
		DrawArraysFunc: func(gl.Enum, int, int) { pending = gl.INVALID_OPERATION },
		GetErrorFunc: func() gl.Enum {
			code := pending
			pending = gl.NO_ERROR
			return code
		},
	}
	test.That(t, r.OnSurfaceCreated(glctx), test.ShouldBeNil)
	publishPoints(t, buffers, 5)
	glctx.ResetCalls()

	err := r.Draw(Frame{Size: image.Pt(1920, 1080), Zoom: 1})
	var glErr *GraphicsCallError
	test.That(t, errors.As(err, &glErr), test.ShouldBeTrue)
	test.That(t, glErr.Phase, test.ShouldEqual, "draw")
	test.That(t, glErr.Code, test.ShouldEqual, gl.Enum(gl.INVALID_OPERATION))
	test.That(t, err.Error(), test.ShouldContainSubstring, "GL_INVALID_OPERATION")

	// the frame is abandoned, not the pipeline
	calls := glctx.Calls()
	test.That(t, calls[len(calls)-1], test.ShouldEqual, "ColorMask(true,true,true,true)")
	test.That(t, r.State(), test.ShouldEqual, Ready)
	test.That(t, r.Draw(Frame{Size: image.Pt(1920, 1080), Zoom: 1}), test.ShouldBeNil)
}

func TestRendererErrorBeforeDraw(t *testing.T) {
	r, buffers := newTestRenderer(t, shaderFS)
	fail := false
	glctx := &inject.GL{
		GetErrorFunc: func() gl.Enum {
			if fail {
				return gl.OUT_OF_MEMORY
			}
			return gl.NO_ERROR
		},
	}
	test.That(t, r.OnSurfaceCreated(glctx), test.ShouldBeNil)
	publishPoints(t, buffers, 5)
	glctx.ResetCalls()

	// a context that keeps reporting errors must not spin forever
	fail = true
	err := r.Draw(Frame{Size: image.Pt(1920, 1080), Zoom: 1})
	var glErr *GraphicsCallError
	test.That(t, errors.As(err, &glErr), test.ShouldBeTrue)
	test.That(t, glErr.Phase, test.ShouldEqual, "before draw")
	test.That(t, glctx.Calls(), test.ShouldBeEmpty)
}

func TestRendererLifecycle(t *testing.T) {
	r, buffers := newTestRenderer(t, shaderFS)
	glctx := &inject.GL{}
	test.That(t, r.OnSurfaceCreated(glctx), test.ShouldBeNil)
	publishPoints(t, buffers, 3)

	// context loss forgets handles without calling into the dead context
	glctx.ResetCalls()
	r.OnContextLost()
	test.That(t, r.State(), test.ShouldEqual, Uninitialized)
	test.That(t, glctx.Calls(), test.ShouldBeEmpty)
	test.That(t, r.Draw(Frame{Size: image.Pt(10, 10), Zoom: 1}), test.ShouldBeNil)
	test.That(t, glctx.Calls(), test.ShouldBeEmpty)

	// a new context gets a new program
	next := &inject.GL{}
	test.That(t, r.OnSurfaceCreated(next), test.ShouldBeNil)
	test.That(t, r.Close(), test.ShouldBeNil)
	test.That(t, next.Calls(), test.ShouldContain, "DeleteProgram(3)")
	test.That(t, r.State(), test.ShouldEqual, Uninitialized)
	test.That(t, r.Close(), test.ShouldBeNil)
}
