package selection

import "sync"

// GlobalInput fans global input events (keys, pointer-downs outside the day
// grid, context-menu opens) out to registered handlers. It stands in for the
// window-level listeners a rendering layer would attach.
type GlobalInput struct {
	mu     sync.Mutex
	nextID int

	keydown     map[int]func(key string)
	pointerDown map[int]func()
	contextMenu map[int]func()
}

func NewGlobalInput() *GlobalInput {
	return &GlobalInput{
		keydown:     map[int]func(key string){},
		pointerDown: map[int]func(){},
		contextMenu: map[int]func(){},
	}
}

// OnKeydown registers a key handler and returns its deregistration func.
func (g *GlobalInput) OnKeydown(fn func(key string)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.keydown[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.keydown, id)
	}
}

// OnPointerDown registers a handler for pointer-downs outside the grid.
func (g *GlobalInput) OnPointerDown(fn func()) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.pointerDown[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.pointerDown, id)
	}
}

// OnContextMenu registers a handler for context-menu opens.
func (g *GlobalInput) OnContextMenu(fn func()) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.contextMenu[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.contextMenu, id)
	}
}

// Keydown dispatches a key press to all registered handlers.
func (g *GlobalInput) Keydown(key string) {
	for _, fn := range g.snapshotKeydown() {
		fn(key)
	}
}

// PointerDown dispatches a pointer-down that landed outside the day grid.
func (g *GlobalInput) PointerDown() {
	for _, fn := range g.snapshotPointerDown() {
		fn()
	}
}

// ContextMenu dispatches a context-menu open.
func (g *GlobalInput) ContextMenu() {
	for _, fn := range g.snapshotContextMenu() {
		fn()
	}
}

// HandlerCount reports the number of live handlers across all event kinds.
func (g *GlobalInput) HandlerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.keydown) + len(g.pointerDown) + len(g.contextMenu)
}

func (g *GlobalInput) snapshotKeydown() []func(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fns := make([]func(key string), 0, len(g.keydown))
	for _, fn := range g.keydown {
		fns = append(fns, fn)
	}
	return fns
}

func (g *GlobalInput) snapshotPointerDown() []func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	fns := make([]func(), 0, len(g.pointerDown))
	for _, fn := range g.pointerDown {
		fns = append(fns, fn)
	}
	return fns
}

func (g *GlobalInput) snapshotContextMenu() []func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	fns := make([]func(), 0, len(g.contextMenu))
	for _, fn := range g.contextMenu {
		fns = append(fns, fn)
	}
	return fns
}

// Binding wires a machine's cancellation paths to global input: Escape,
// pointer-downs outside the grid and context-menu opens all discard the
// pending selection. Close deregisters every handler.
type Binding struct {
	unsubscribe []func()
	closeOnce   sync.Once
}

// Bind attaches the machine's cancel handlers to the dispatcher.
func Bind(input *GlobalInput, machine *Machine) *Binding {
	b := &Binding{}
	b.unsubscribe = append(b.unsubscribe,
		input.OnKeydown(func(key string) {
			if key == "Escape" {
				machine.Cancel()
			}
		}),
		input.OnPointerDown(machine.Cancel),
		input.OnContextMenu(machine.Cancel),
	)
	return b
}

// Close deregisters all handlers installed by Bind. Safe to call twice.
func (b *Binding) Close() {
	b.closeOnce.Do(func() {
		for _, fn := range b.unsubscribe {
			fn()
		}
	})
}
