// Package gpu runs the escape-time kernel as a GLSL fragment shader,
// ping-ponging between two RGBA32F framebuffers.
//
// All functions must be called from the thread that called Init.
package gpu

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var ErrNoDisplay = errors.New("no display available for an OpenGL context")

var (
	glInitOnce sync.Once
	glInitErr  error
)

// Init initialises glfw and locks the calling goroutine to its thread.
func Init() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrNoDisplay, err)
	}
	return nil
}

func Terminate() {
	glfw.Terminate()
}

// Context is a hidden glfw window owning an OpenGL 4.6 core context.
type Context struct {
	window *glfw.Window
}

func NewContext(debug bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)
	if debug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}

	window, err := glfw.CreateWindow(1, 1, "glmandel", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("glfw.CreateWindow failed: %w", err)
	}

	c := &Context{
		window: window,
	}
	c.MakeCurrent()

	glInitOnce.Do(func() {
		glInitErr = gl.Init()
	})
	if glInitErr != nil {
		window.Destroy()
		return nil, fmt.Errorf("gl.Init failed: %w", glInitErr)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	log.Println("OpenGL version", version)

	if debug {
		gl.DebugMessageCallback(glDebugMessage, nil)
		gl.Enable(gl.DEBUG_OUTPUT)
	}

	return c, nil
}

func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

func (c *Context) Destroy() {
	c.window.Destroy()
}

var (
	debugSeverities = map[uint32]string{
		gl.DEBUG_SEVERITY_HIGH:         "high",
		gl.DEBUG_SEVERITY_MEDIUM:       "medium",
		gl.DEBUG_SEVERITY_LOW:          "low",
		gl.DEBUG_SEVERITY_NOTIFICATION: "notification",
	}
	debugSources = map[uint32]string{
		gl.DEBUG_SOURCE_API:             "api",
		gl.DEBUG_SOURCE_APPLICATION:     "application",
		gl.DEBUG_SOURCE_OTHER:           "other",
		gl.DEBUG_SOURCE_SHADER_COMPILER: "shaderCompiler",
		gl.DEBUG_SOURCE_THIRD_PARTY:     "thirdParty",
		gl.DEBUG_SOURCE_WINDOW_SYSTEM:   "windowSystem",
	}
	debugTypes = map[uint32]string{
		gl.DEBUG_TYPE_ERROR:               "error",
		gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR: "deprecatedBehavior",
		gl.DEBUG_TYPE_MARKER:              "marker",
		gl.DEBUG_TYPE_OTHER:               "other",
		gl.DEBUG_TYPE_PERFORMANCE:         "performance",
		gl.DEBUG_TYPE_POP_GROUP:           "popGroup",
		gl.DEBUG_TYPE_PORTABILITY:         "portability",
		gl.DEBUG_TYPE_PUSH_GROUP:          "pushGroup",
		gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:  "undefinedBehavior",
	}
)

func lookupOr(m map[uint32]string, k uint32, fallback string) string {
	if s, ok := m[k]; ok {
		return s
	}
	return fallback
}

func glDebugMessage(
	source,
	gltype,
	id,
	severity uint32,
	length int32,
	message string,
	user unsafe.Pointer,
) {
	log.Printf("%v(%v): %v; %v\n",
		lookupOr(debugSources, source, "unknownSource"),
		lookupOr(debugSeverities, severity, "unknown"),
		lookupOr(debugTypes, gltype, "unknownType"),
		message,
	)
}
