package chat

// Renderer receives the complete current message. It may be called many
// times per session; the last call is authoritative.
type Renderer interface {
	Render(message string)
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(message string)

func (f RendererFunc) Render(message string) {
	f(message)
}

type nopRenderer struct{}

func (nopRenderer) Render(string) {}
