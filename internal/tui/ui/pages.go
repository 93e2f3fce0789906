package ui

import "github.com/rivo/tview"

// Pages is the navigation stack. Every page is registered with the
// Component that names it in the crumbs. A page appears on the stack at
// most once: pushing a page that is already there unwinds back to it.
type Pages struct {
	*tview.Pages
	components map[string]Component
	stack      []string
	onChange   func(crumbs []string)
}

// NewPages creates an empty navigation stack.
func NewPages() *Pages {
	return &Pages{
		Pages:      tview.NewPages(),
		components: make(map[string]Component),
	}
}

// Add registers a hidden page.
func (p *Pages) Add(name string, item tview.Primitive, c Component) {
	p.components[name] = c
	p.AddPage(name, item, true, false)
}

// Component returns the component registered for name, or nil.
func (p *Pages) Component(name string) Component {
	return p.components[name]
}

// SetOnChange sets a callback that receives the crumb names, bottom first,
// whenever the stack changes.
func (p *Pages) SetOnChange(fn func(crumbs []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack.
func (p *Pages) Push(name string) {
	if i := p.index(name); i >= 0 {
		p.stack = p.stack[:i+1]
	} else {
		p.stack = append(p.stack, name)
	}
	p.changed()
}

// Pop removes the top page unless it is the last one and returns its
// name, or "" if nothing was popped.
func (p *Pages) Pop() string {
	if len(p.stack) < 2 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.changed()
	return top
}

// Replace swaps the top page for name.
func (p *Pages) Replace(name string) {
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
	p.Push(name)
}

// Reset makes name the only page on the stack.
func (p *Pages) Reset(name string) {
	p.stack = append(p.stack[:0], name)
	p.changed()
}

// Contains reports whether name is anywhere on the stack.
func (p *Pages) Contains(name string) bool {
	return p.index(name) >= 0
}

// Current returns the top page, or "".
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Depth returns the number of pages on the stack.
func (p *Pages) Depth() int {
	return len(p.stack)
}

func (p *Pages) index(name string) int {
	for i, n := range p.stack {
		if n == name {
			return i
		}
	}
	return -1
}

func (p *Pages) changed() {
	top := p.Current()
	for name := range p.components {
		if name != top {
			p.HidePage(name)
		}
	}
	p.ShowPage(top)
	p.SendToFront(top)

	if p.onChange == nil {
		return
	}
	crumbs := make([]string, 0, len(p.stack))
	for _, name := range p.stack {
		if c := p.components[name]; c != nil {
			crumbs = append(crumbs, c.Name())
		} else {
			crumbs = append(crumbs, name)
		}
	}
	p.onChange(crumbs)
}
