package render

import (
	"golang.org/x/mobile/gl"
)

func compileShader(glctx GL, ty gl.Enum, stage, src string) (gl.Shader, error) {
	shader := glctx.CreateShader(ty)
	if shader.Value == 0 {
		return gl.Shader{}, &ShaderCompileError{Stage: stage, InfoLog: "could not create shader"}
	}
	glctx.ShaderSource(shader, src)
	glctx.CompileShader(shader)
	if glctx.GetShaderi(shader, gl.COMPILE_STATUS) == 0 {
		infoLog := glctx.GetShaderInfoLog(shader)
		glctx.DeleteShader(shader)
		return gl.Shader{}, &ShaderCompileError{Stage: stage, InfoLog: infoLog}
	}
	return shader, nil
}

// createProgram compiles and links the two-stage program. The shaders are released once linked.
func createProgram(glctx GL, vertexSrc, fragmentSrc string) (gl.Program, error) {
	vertex, err := compileShader(glctx, gl.VERTEX_SHADER, "vertex", vertexSrc)
	if err != nil {
		return gl.Program{}, err
	}
	defer glctx.DeleteShader(vertex)

	fragment, err := compileShader(glctx, gl.FRAGMENT_SHADER, "fragment", fragmentSrc)
	if err != nil {
		return gl.Program{}, err
	}
	defer glctx.DeleteShader(fragment)

	program := glctx.CreateProgram()
	if program.Value == 0 {
		return gl.Program{}, &ProgramLinkError{InfoLog: "could not create program"}
	}
	glctx.AttachShader(program, vertex)
	glctx.AttachShader(program, fragment)
	glctx.LinkProgram(program)
	if glctx.GetProgrami(program, gl.LINK_STATUS) == 0 {
		infoLog := glctx.GetProgramInfoLog(program)
		glctx.DeleteProgram(program)
		return gl.Program{}, &ProgramLinkError{InfoLog: infoLog}
	}
	return program, nil
}
