// Package render draws published depth point clouds with OpenGL ES 2.
package render

import (
	"image"

	"go.uber.org/multierr"
	"golang.org/x/mobile/gl"

	"go.viam.com/tofviewer/logging"
	"go.viam.com/tofviewer/pointcloud"
)

const (
	positionAttribName   = "a_Position"
	colorAttribName      = "a_Color"
	pointSizeUniformName = "u_PointSize"
	rotationUniformName  = "u_Rotation"
)

// State is the renderer's context lifecycle state.
type State int

const (
	// Uninitialized means there is no usable program; Draw does nothing.
	Uninitialized State = iota
	// Ready means the program is linked and Draw renders.
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// Frame describes the surface for one draw.
type Frame struct {
	// Size is the surface size in pixels.
	Size     image.Point
	Rotation Rotation
	// Zoom scales the letterboxed rectangle and is expected in (0, 1].
	Zoom float32
}

// Renderer owns the GL program and draws the consumer side of a FrameBuffers. All methods must be
// called on the render thread.
type Renderer struct {
	buffers *pointcloud.FrameBuffers
	depth   image.Point
	assets  AssetOpener
	logger  logging.Logger

	glctx            GL
	state            State
	program          gl.Program
	positionAttrib   gl.Attrib
	colorAttrib      gl.Attrib
	pointSizeUniform gl.Uniform
	rotationUniform  gl.Uniform
	vertexBuffer     gl.Buffer
	colorBuffer      gl.Buffer
}

// NewRenderer returns an uninitialized renderer for depth images of depthWidth x depthHeight.
func NewRenderer(
	buffers *pointcloud.FrameBuffers,
	depthWidth, depthHeight int,
	assets AssetOpener,
	logger logging.Logger,
) *Renderer {
	return &Renderer{
		buffers: buffers,
		depth:   image.Pt(depthWidth, depthHeight),
		assets:  assets,
		logger:  logger,
	}
}

// State returns the current lifecycle state.
func (r *Renderer) State() State {
	return r.state
}

// OnSurfaceCreated builds the program on a freshly created context. Any previous program belonged
// to a lost context and is forgotten. On failure the renderer stays Uninitialized and the next call
// retries.
func (r *Renderer) OnSurfaceCreated(glctx GL) error {
	r.reset()

	if err := r.init(glctx); err != nil {
		r.logger.Errorw("failed to initialize point cloud renderer", "error", err)
		return err
	}
	r.logger.Debugw("point cloud renderer ready", "depth_width", r.depth.X, "depth_height", r.depth.Y)
	return nil
}

func (r *Renderer) init(glctx GL) error {
	vertexSrc, err := loadAsset(r.assets, VertexShaderAsset)
	if err != nil {
		return err
	}
	fragmentSrc, err := loadAsset(r.assets, FragmentShaderAsset)
	if err != nil {
		return err
	}

	program, err := createProgram(glctx, vertexSrc, fragmentSrc)
	if err != nil {
		return err
	}
	glctx.UseProgram(program)
	if err := checkError(glctx, "program"); err != nil {
		glctx.DeleteProgram(program)
		return err
	}

	r.colorAttrib = glctx.GetAttribLocation(program, colorAttribName)
	r.positionAttrib = glctx.GetAttribLocation(program, positionAttribName)
	r.pointSizeUniform = glctx.GetUniformLocation(program, pointSizeUniformName)
	r.rotationUniform = glctx.GetUniformLocation(program, rotationUniformName)
	r.vertexBuffer = glctx.CreateBuffer()
	r.colorBuffer = glctx.CreateBuffer()
	if err := checkError(glctx, "program params"); err != nil {
		glctx.DeleteBuffer(r.vertexBuffer)
		glctx.DeleteBuffer(r.colorBuffer)
		glctx.DeleteProgram(program)
		return err
	}

	r.glctx = glctx
	r.program = program
	r.state = Ready
	return nil
}

// OnContextLost forgets every GL handle without touching the (already gone) context.
func (r *Renderer) OnContextLost() {
	r.reset()
}

func (r *Renderer) reset() {
	r.glctx = nil
	r.state = Uninitialized
	r.program = gl.Program{}
	r.positionAttrib = gl.Attrib{}
	r.colorAttrib = gl.Attrib{}
	r.pointSizeUniform = gl.Uniform{}
	r.rotationUniform = gl.Uniform{}
	r.vertexBuffer = gl.Buffer{}
	r.colorBuffer = gl.Buffer{}
}

// Close releases the program and buffers on a still-current context.
func (r *Renderer) Close() error {
	if r.state != Ready {
		return nil
	}
	glctx := r.glctx
	glctx.DeleteBuffer(r.vertexBuffer)
	glctx.DeleteBuffer(r.colorBuffer)
	glctx.DeleteProgram(r.program)
	err := checkError(glctx, "teardown")
	r.reset()
	return err
}

// Draw renders the most recently published cloud, letterboxed and rotated for frame. It is a no-op
// while Uninitialized. A GL error abandons the frame but leaves the renderer Ready.
func (r *Renderer) Draw(frame Frame) error {
	if r.state != Ready {
		return nil
	}
	glctx := r.glctx

	if err := checkError(glctx, "before draw"); err != nil {
		r.logger.Warnw("abandoning depth frame", "error", err)
		return err
	}

	// Clear the whole surface so the letterbox bars never show stale content.
	glctx.Disable(gl.SCISSOR_TEST)
	glctx.Viewport(0, 0, frame.Size.X, frame.Size.Y)
	glctx.ClearColor(0, 0, 0, 1)
	glctx.Clear(gl.COLOR_BUFFER_BIT)

	err := r.buffers.WithConsumer(func(cloud *pointcloud.Cloud) error {
		if cloud == nil || cloud.N == 0 {
			return nil
		}
		return r.drawCloud(glctx, cloud, frame)
	})
	if err != nil {
		r.logger.Warnw("abandoning depth frame", "error", err)
	}
	return err
}

func (r *Renderer) drawCloud(glctx GL, cloud *pointcloud.Cloud, frame Frame) (err error) {
	rect := ComputeViewport(frame.Size, r.depth, frame.Zoom)
	defer func() {
		err = multierr.Combine(err, r.restore(glctx, frame.Size))
	}()

	glctx.ClearColor(0, 0, 0, 1)
	glctx.Enable(gl.SCISSOR_TEST)
	glctx.Scissor(int32(rect.Min.X), int32(rect.Min.Y), int32(rect.Dx()), int32(rect.Dy()))
	glctx.Viewport(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	glctx.Clear(gl.COLOR_BUFFER_BIT)
	if err := checkError(glctx, "viewport"); err != nil {
		return err
	}

	glctx.UseProgram(r.program)
	glctx.EnableVertexAttribArray(r.colorAttrib)
	glctx.BindBuffer(gl.ARRAY_BUFFER, r.colorBuffer)
	glctx.BufferData(gl.ARRAY_BUFFER, cloud.ColorBytes(), gl.STREAM_DRAW)
	glctx.VertexAttribPointer(r.colorAttrib, pointcloud.FloatsPerPoint, gl.FLOAT, false, pointcloud.BytesPerPoint, 0)
	glctx.EnableVertexAttribArray(r.positionAttrib)
	glctx.BindBuffer(gl.ARRAY_BUFFER, r.vertexBuffer)
	glctx.BufferData(gl.ARRAY_BUFFER, cloud.VertexBytes(), gl.STREAM_DRAW)
	glctx.VertexAttribPointer(r.positionAttrib, pointcloud.FloatsPerPoint, gl.FLOAT, false, pointcloud.BytesPerPoint, 0)

	glctx.Uniform1f(r.pointSizeUniform, PointSize(frame.Size, r.depth, frame.Zoom))
	glctx.Uniform1f(r.rotationUniform, frame.Rotation.UniformDegrees())
	if err := checkError(glctx, "bind"); err != nil {
		return err
	}

	glctx.DrawArrays(gl.POINTS, 0, cloud.N)
	return checkError(glctx, "draw")
}

// restore puts back the state the rest of the frame expects: full-surface viewport, no scissor.
func (r *Renderer) restore(glctx GL, surface image.Point) error {
	glctx.DisableVertexAttribArray(r.positionAttrib)
	glctx.BindBuffer(gl.ARRAY_BUFFER, gl.Buffer{})
	glctx.Disable(gl.SCISSOR_TEST)
	glctx.Scissor(0, 0, int32(surface.X), int32(surface.Y))
	glctx.Viewport(0, 0, surface.X, surface.Y)
	glctx.ClearColor(0, 0, 0, 1)
	glctx.ColorMask(true, true, true, true)
	return checkError(glctx, "restore")
}
