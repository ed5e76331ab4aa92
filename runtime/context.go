// Package runtime provides the per-render resolution context: the frame
// stack that gives tag bodies block-scoped bindings, loop metadata, and
// output escaping.  Both render backends implement the same contract —
// the native renderer calls Context directly, generated JS calls the
// prelude's mirror of it.
//
// A Context belongs to one render call.  Frames are never shared or
// reused across renders, so concurrent renders are safe as long as each
// obtains its own Context.
package runtime

import (
	"html"

	"github.com/mbarley/edge/data"
)

// Frame is one scope of variable bindings.
type Frame = data.Map

// Context carries the state of a single render: a stack of Frames, with
// the root frame holding the render data over any engine globals.
type Context struct {
	frames  []Frame
	globals data.Map
}

// NewContext returns a fresh Context whose root frame holds globals
// overlaid by the render data (data wins).  The root frame is its own
// map: a render never mutates the caller's maps.
func NewContext(d, globals data.Map) *Context {
	root := make(Frame, len(globals)+len(d))
	for k, v := range globals {
		root[k] = v
	}
	for k, v := range d {
		root[k] = v
	}
	return &Context{frames: []Frame{root}, globals: globals}
}

// Globals returns the globals this Context was created with.  Component
// renders use it to seed their isolated child Contexts: props replace
// the caller's data, globals carry over.
func (c *Context) Globals() data.Map {
	return c.globals
}

// NewFrame pushes an empty Frame.  Every NewFrame must be paired with a
// RemoveFrame on all exit paths from the tag body it scopes, normal or
// panicking; bodies use defer for this.
func (c *Context) NewFrame() {
	c.frames = append(c.frames, Frame{})
}

// RemoveFrame pops the topmost Frame.  Removing the root frame panics:
// only an unbalanced code path can attempt it.
func (c *Context) RemoveFrame() {
	if len(c.frames) == 1 {
		panic("runtime: cannot remove the root frame")
	}
	c.frames = c.frames[:len(c.frames)-1]
}

// SetOnFrame binds name in the current (topmost) Frame only, shadowing
// any binding of the same name below it.
func (c *Context) SetOnFrame(name string, value data.Value) {
	c.frames[len(c.frames)-1][name] = value
}

// Resolve checks the frames, topmost first, for the given name.
// Unbound names resolve to Undefined; resolution never fails.
func (c *Context) Resolve(name string) data.Value {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if val, ok := c.frames[i][name]; ok {
			return val
		}
	}
	return data.Undefined{}
}

// Stringify renders a value the way template output writes it.
func (c *Context) Stringify(v data.Value) string {
	return v.String()
}

// Escape HTML-escapes a value for output: & < > " ' become &amp; &lt;
// &gt; &#34; &#39;.  SafeString values pass through untouched.
func (c *Context) Escape(v data.Value) string {
	if s, ok := v.(data.SafeString); ok {
		return string(s)
	}
	return html.EscapeString(v.String())
}
