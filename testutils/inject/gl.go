// Package inject provides function-field test doubles for the viewer's external collaborators.
package inject

import (
	"fmt"
	"sync"

	"golang.org/x/mobile/gl"
)

// GL is an injected GL context. Every call is recorded in order; methods with an injected Func call
// it, the rest succeed and hand out increasing non-zero handles.
type GL struct {
	GetShaderiFunc        func(s gl.Shader, pname gl.Enum) int
	GetShaderInfoLogFunc  func(s gl.Shader) string
	GetProgramiFunc       func(p gl.Program, pname gl.Enum) int
	GetProgramInfoLogFunc func(p gl.Program) string
	GetErrorFunc          func() gl.Enum
	BufferDataFunc        func(target gl.Enum, src []byte, usage gl.Enum)
	Uniform1fFunc         func(dst gl.Uniform, v float32)
	DrawArraysFunc        func(mode gl.Enum, first, count int)
	ViewportFunc          func(x, y, width, height int)
	ScissorFunc           func(x, y, width, height int32)

	mu         sync.Mutex
	calls      []string
	nextHandle uint32
	locations  map[string]int32
}

func (g *GL) record(format string, args ...interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *GL) handle() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextHandle++
	return g.nextHandle
}

func (g *GL) location(name string) int32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.locations == nil {
		g.locations = map[string]int32{}
	}
	loc, ok := g.locations[name]
	if !ok {
		loc = int32(len(g.locations))
		g.locations[name] = loc
	}
	return loc
}

// Calls returns the recorded calls, e.g. "Viewport(0,0,1920,1080)".
func (g *GL) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// ResetCalls forgets the recorded calls.
func (g *GL) ResetCalls() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = nil
}

// AttribLocation returns the location handed out for name.
func (g *GL) AttribLocation(name string) gl.Attrib {
	return gl.Attrib{Value: uint(g.location(name))}
}

// UniformLocation returns the location handed out for name.
func (g *GL) UniformLocation(name string) gl.Uniform {
	return gl.Uniform{Value: g.location(name)}
}

// CreateShader records the call and returns a new shader.
func (g *GL) CreateShader(ty gl.Enum) gl.Shader {
	g.record("CreateShader(%d)", ty)
	return gl.Shader{Value: g.handle()}
}

// ShaderSource records the call.
func (g *GL) ShaderSource(s gl.Shader, src string) {
	g.record("ShaderSource(%d)", s.Value)
}

// CompileShader records the call.
func (g *GL) CompileShader(s gl.Shader) {
	g.record("CompileShader(%d)", s.Value)
}

// GetShaderi calls the injected GetShaderi or reports success.
func (g *GL) GetShaderi(s gl.Shader, pname gl.Enum) int {
	g.record("GetShaderi(%d)", s.Value)
	if g.GetShaderiFunc == nil {
		return 1
	}
	return g.GetShaderiFunc(s, pname)
}

// GetShaderInfoLog calls the injected GetShaderInfoLog or returns an empty log.
func (g *GL) GetShaderInfoLog(s gl.Shader) string {
	g.record("GetShaderInfoLog(%d)", s.Value)
	if g.GetShaderInfoLogFunc == nil {
		return ""
	}
	return g.GetShaderInfoLogFunc(s)
}

// DeleteShader records the call.
func (g *GL) DeleteShader(s gl.Shader) {
	g.record("DeleteShader(%d)", s.Value)
}

// CreateProgram records the call and returns a new program.
func (g *GL) CreateProgram() gl.Program {
	g.record("CreateProgram()")
	return gl.Program{Init: true, Value: g.handle()}
}

// AttachShader records the call.
func (g *GL) AttachShader(p gl.Program, s gl.Shader) {
	g.record("AttachShader(%d,%d)", p.Value, s.Value)
}

// LinkProgram records the call.
func (g *GL) LinkProgram(p gl.Program) {
	g.record("LinkProgram(%d)", p.Value)
}

// GetProgrami calls the injected GetProgrami or reports success.
func (g *GL) GetProgrami(p gl.Program, pname gl.Enum) int {
	g.record("GetProgrami(%d)", p.Value)
	if g.GetProgramiFunc == nil {
		return 1
	}
	return g.GetProgramiFunc(p, pname)
}

// GetProgramInfoLog calls the injected GetProgramInfoLog or returns an empty log.
func (g *GL) GetProgramInfoLog(p gl.Program) string {
	g.record("GetProgramInfoLog(%d)", p.Value)
	if g.GetProgramInfoLogFunc == nil {
		return ""
	}
	return g.GetProgramInfoLogFunc(p)
}

// UseProgram records the call.
func (g *GL) UseProgram(p gl.Program) {
	g.record("UseProgram(%d)", p.Value)
}

// DeleteProgram records the call.
func (g *GL) DeleteProgram(p gl.Program) {
	g.record("DeleteProgram(%d)", p.Value)
}

// GetAttribLocation records the call and returns a stable location for name.
func (g *GL) GetAttribLocation(p gl.Program, name string) gl.Attrib {
	g.record("GetAttribLocation(%s)", name)
	return g.AttribLocation(name)
}

// GetUniformLocation records the call and returns a stable location for name.
func (g *GL) GetUniformLocation(p gl.Program, name string) gl.Uniform {
	g.record("GetUniformLocation(%s)", name)
	return g.UniformLocation(name)
}

// CreateBuffer records the call and returns a new buffer.
func (g *GL) CreateBuffer() gl.Buffer {
	g.record("CreateBuffer()")
	return gl.Buffer{Value: g.handle()}
}

// BindBuffer records the call.
func (g *GL) BindBuffer(target gl.Enum, b gl.Buffer) {
	g.record("BindBuffer(%d)", b.Value)
}

// BufferData calls the injected BufferData and records the size uploaded.
func (g *GL) BufferData(target gl.Enum, src []byte, usage gl.Enum) {
	g.record("BufferData(%d)", len(src))
	if g.BufferDataFunc != nil {
		g.BufferDataFunc(target, src, usage)
	}
}

// DeleteBuffer records the call.
func (g *GL) DeleteBuffer(v gl.Buffer) {
	g.record("DeleteBuffer(%d)", v.Value)
}

// EnableVertexAttribArray records the call.
func (g *GL) EnableVertexAttribArray(a gl.Attrib) {
	g.record("EnableVertexAttribArray(%d)", a.Value)
}

// DisableVertexAttribArray records the call.
func (g *GL) DisableVertexAttribArray(a gl.Attrib) {
	g.record("DisableVertexAttribArray(%d)", a.Value)
}

// VertexAttribPointer records the call.
func (g *GL) VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int) {
	g.record("VertexAttribPointer(%d,%d,%t,%d,%d)", dst.Value, size, normalized, stride, offset)
}

// Uniform1f calls the injected Uniform1f and records the call.
func (g *GL) Uniform1f(dst gl.Uniform, v float32) {
	g.record("Uniform1f(%d,%g)", dst.Value, v)
	if g.Uniform1fFunc != nil {
		g.Uniform1fFunc(dst, v)
	}
}

// DrawArrays calls the injected DrawArrays and records the call.
func (g *GL) DrawArrays(mode gl.Enum, first, count int) {
	g.record("DrawArrays(%d,%d,%d)", mode, first, count)
	if g.DrawArraysFunc != nil {
		g.DrawArraysFunc(mode, first, count)
	}
}

// Viewport calls the injected Viewport and records the call.
func (g *GL) Viewport(x, y, width, height int) {
	g.record("Viewport(%d,%d,%d,%d)", x, y, width, height)
	if g.ViewportFunc != nil {
		g.ViewportFunc(x, y, width, height)
	}
}

// Scissor calls the injected Scissor and records the call.
func (g *GL) Scissor(x, y, width, height int32) {
	g.record("Scissor(%d,%d,%d,%d)", x, y, width, height)
	if g.ScissorFunc != nil {
		g.ScissorFunc(x, y, width, height)
	}
}

// Enable records the call.
func (g *GL) Enable(capability gl.Enum) {
	g.record("Enable(%d)", capability)
}

// Disable records the call.
func (g *GL) Disable(capability gl.Enum) {
	g.record("Disable(%d)", capability)
}

// ClearColor records the call.
func (g *GL) ClearColor(red, green, blue, alpha float32) {
	g.record("ClearColor(%g,%g,%g,%g)", red, green, blue, alpha)
}

// Clear records the call.
func (g *GL) Clear(mask gl.Enum) {
	g.record("Clear(%d)", mask)
}

// ColorMask records the call.
func (g *GL) ColorMask(red, green, blue, alpha bool) {
	g.record("ColorMask(%t,%t,%t,%t)", red, green, blue, alpha)
}

// GetError calls the injected GetError or reports no error. It is not recorded.
func (g *GL) GetError() gl.Enum {
	if g.GetErrorFunc == nil {
		return gl.NO_ERROR
	}
	return g.GetErrorFunc()
}
