package entity

// Renderer handles drawing simulation frames
type Renderer interface {
	RenderBoundary(boundary *Boundary)
	RenderBall(ball *Ball)
	Clear()
	Present()
}
