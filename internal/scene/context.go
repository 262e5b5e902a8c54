package scene

// Context describes the current editing context. An isolated context edits
// a single object subtree on its own (a prefab opened for editing) and has
// no scene around it.
type Context struct {
	Isolated bool
	Root     Handle
}

// Context returns the current editing context.
func (s *Scene) Context() Context {
	return s.ctx
}

// SetContext replaces the editing context.
func (s *Scene) SetContext(c Context) {
	s.ctx = c
}

// Isolated returns the root of the isolated editing context, if any.
func (s *Scene) Isolated() (Handle, bool) {
	if !s.ctx.Isolated || !s.Exists(s.ctx.Root) {
		return None, false
	}
	return s.ctx.Root, true
}
