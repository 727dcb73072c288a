package backend

import "runtime"

// ID identifies a concrete backend implementation.
type ID int

const (
	// IDUnknown is the zero value and never describes a real backend.
	IDUnknown ID = iota
	// IDEdge is the cloud-neural edge-tts command line engine.
	IDEdge
	// IDNative is the operating system's own speech engine.
	IDNative
	// IDOllama is a local Ollama model server.
	IDOllama
	// IDLMStudio is a local LM Studio model server.
	IDLMStudio
	// IDMock is the test backend.
	IDMock
)

// String returns the string representation of the backend ID.
func (id ID) String() string {
	switch id {
	case IDEdge:
		return "edge"
	case IDNative:
		return "native"
	case IDOllama:
		return "ollama"
	case IDLMStudio:
		return "lmstudio"
	case IDMock:
		return "mock"
	default:
		return "unknown"
	}
}

// Platform is a platform tag in GOOS vocabulary ("linux", "darwin",
// "windows", "android", "ios").
type Platform string

// CurrentPlatform returns the platform tag of the running process.
func CurrentPlatform() Platform {
	return Platform(runtime.GOOS)
}

// Descriptor is the immutable description of a backend: where it runs and
// how strongly it is preferred. Lower priority wins.
type Descriptor struct {
	ID        ID
	Platforms []Platform
	Priority  int
}

// SupportsPlatform reports whether the descriptor lists the given platform.
// This is a static fact and performs no I/O.
func (d Descriptor) SupportsPlatform(p Platform) bool {
	for _, plat := range d.Platforms {
		if plat == p {
			return true
		}
	}
	return false
}
