package render

import "golang.org/x/mobile/gl"

// GL is the part of gl.Context the renderer uses. Every call must be made on the thread that owns
// the context.
type GL interface {
	CreateShader(ty gl.Enum) gl.Shader
	ShaderSource(s gl.Shader, src string)
	CompileShader(s gl.Shader)
	GetShaderi(s gl.Shader, pname gl.Enum) int
	GetShaderInfoLog(s gl.Shader) string
	DeleteShader(s gl.Shader)

	CreateProgram() gl.Program
	AttachShader(p gl.Program, s gl.Shader)
	LinkProgram(p gl.Program)
	GetProgrami(p gl.Program, pname gl.Enum) int
	GetProgramInfoLog(p gl.Program) string
	UseProgram(p gl.Program)
	DeleteProgram(p gl.Program)
	GetAttribLocation(p gl.Program, name string) gl.Attrib
	GetUniformLocation(p gl.Program, name string) gl.Uniform

	CreateBuffer() gl.Buffer
	BindBuffer(target gl.Enum, b gl.Buffer)
	BufferData(target gl.Enum, src []byte, usage gl.Enum)
	DeleteBuffer(v gl.Buffer)

	EnableVertexAttribArray(a gl.Attrib)
	DisableVertexAttribArray(a gl.Attrib)
	VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int)
	Uniform1f(dst gl.Uniform, v float32)
	DrawArrays(mode gl.Enum, first, count int)

	Viewport(x, y, width, height int)
	Scissor(x, y, width, height int32)
	Enable(cap gl.Enum)
	Disable(cap gl.Enum)
	ClearColor(red, green, blue, alpha float32)
	Clear(mask gl.Enum)
	ColorMask(red, green, blue, alpha bool)
	GetError() gl.Enum
}

var _ GL = gl.Context(nil)
