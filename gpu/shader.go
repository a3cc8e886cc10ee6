package gpu

import (
	"fmt"
	"log"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

func compileShader(source string, shaderType uint32) (uint32, error) {
	defer runtime.KeepAlive(source)
	cstring, free := gl.Strs(source + "\x00")
	defer free()

	shader := gl.CreateShader(shaderType)
	gl.ShaderSource(shader, 1, cstring, nil)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetShaderInfoLog(shader, l, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("shader\n\"\n%v\n\"\nfailed to compile: %v", source, log)
	}

	return shader, nil
}

func linkProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.BindFragDataLocation(program, 0, gl.Str("outputColor\x00"))
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetProgramInfoLog(program, l, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	return program, nil
}

// uniformLocations resolves every field of uniforms tagged `uniform`.
func uniformLocations(program uint32, uniforms any) map[string]int32 {
	locations := make(map[string]int32)
	t := reflect.TypeOf(uniforms)
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("uniform")
		if name == "" {
			continue
		}
		locations[name] = gl.GetUniformLocation(program, gl.Str(name+"\x00"))
	}
	return locations
}

// loadUniforms uploads the tagged fields of the struct uniforms points to.
// The program must be in use.
func loadUniforms(uniforms any, locations map[string]int32) {
	v := reflect.ValueOf(uniforms).Elem()
	for i := 0; i < v.NumField(); i++ {
		name := v.Type().Field(i).Tag.Get("uniform")
		if name == "" {
			continue
		}

		f := v.Field(i)
		ptr := f.Addr().UnsafePointer()
		loc := locations[name]

		switch f.Type() {
		case reflect.TypeOf(mgl32.Vec2{}):
			gl.Uniform2fv(loc, 1, (*float32)(ptr))
		case reflect.TypeOf(mgl32.Vec3{}):
			gl.Uniform3fv(loc, 1, (*float32)(ptr))
		case reflect.TypeOf(mgl32.Vec4{}):
			gl.Uniform4fv(loc, 1, (*float32)(ptr))
		case reflect.TypeOf(int32(0)):
			gl.Uniform1iv(loc, 1, (*int32)(ptr))
		case reflect.TypeOf(uint32(0)):
			gl.Uniform1uiv(loc, 1, (*uint32)(ptr))
		case reflect.TypeOf(float32(0)):
			gl.Uniform1fv(loc, 1, (*float32)(ptr))
		default:
			log.Printf("unsupported uniform type %v", f.Type())
		}
	}
}
