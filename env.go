package canopy

// FogConfig holds atmospheric fog parameters. The store does not enforce
// Near < Far; out-of-order values produce degenerate fog, not an error.
type FogConfig struct {
	Enabled bool
	Near    float64
	Far     float64
	Color   Color
}

// LightingConfig holds the default lighting parameters applied when a scene
// declares no lights of its own.
type LightingConfig struct {
	AmbientColor         Color
	AmbientIntensity     float64
	DirectionalIntensity float64
}

// Environment is the cross-cutting render state shared by every node in one
// viewer: fog and default lighting. It is constructed per viewer and passed
// by reference — never a package-level singleton — so independent viewers in
// the same process cannot bleed state into each other. Nodes read through
// the store; none holds a private copy.
type Environment struct {
	fog      FogConfig
	lighting LightingConfig

	handlers []envHandler
	nextID   uint32
}

type envHandler struct {
	id uint32
	fn func()
}

// NewEnvironment creates an environment with lighting defaults and fog
// disabled.
func NewEnvironment() *Environment {
	return &Environment{
		lighting: LightingConfig{
			AmbientColor:         ColorWhite,
			AmbientIntensity:     1,
			DirectionalIntensity: 1,
		},
	}
}

// Fog returns the current fog configuration.
func (e *Environment) Fog() FogConfig {
	return e.fog
}

// Lighting returns the current default lighting configuration.
func (e *Environment) Lighting() LightingConfig {
	return e.lighting
}

// ConfigureFog is the single mutation entry point for fog state.
func (e *Environment) ConfigureFog(fog FogConfig) {
	if e.fog == fog {
		return
	}
	e.fog = fog
	e.notify()
}

// ConfigureLighting is the single mutation entry point for default lighting.
func (e *Environment) ConfigureLighting(lighting LightingConfig) {
	if e.lighting == lighting {
		return
	}
	e.lighting = lighting
	e.notify()
}

func (e *Environment) notify() {
	for _, h := range e.handlers {
		h.fn()
	}
}

// EnvHandle allows removing a registered change callback.
type EnvHandle struct {
	id  uint32
	env *Environment
}

// OnChange registers a callback fired after any fog or lighting change.
func (e *Environment) OnChange(fn func()) EnvHandle {
	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, envHandler{id: id, fn: fn})
	return EnvHandle{id: id, env: e}
}

// Remove unregisters this callback so it no longer fires.
func (h EnvHandle) Remove() {
	if h.env == nil {
		return
	}
	s := h.env.handlers
	for i := range s {
		if s[i].id == h.id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = envHandler{}
			h.env.handlers = s[:len(s)-1]
			return
		}
	}
}
