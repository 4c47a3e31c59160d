package tool

import (
	"context"
	"sort"
	"sync"

	ai "github.com/spetersoncode/scholar"
)

type registeredTool struct {
	tool    ai.Tool
	handler Handler
}

// Registry holds tools and their handlers. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool ai.Tool, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: tool.Name}
	}
	r.tools[tool.Name] = registeredTool{tool: tool, handler: handler}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tool ai.Tool, handler Handler) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	return rt.handler, ok
}

// GetTool returns the definition registered under name.
func (r *Registry) GetTool(name string) (ai.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	return rt.tool, ok
}

// Tools returns all definitions sorted by name, ready to be passed to a
// chat provider.
func (r *Registry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.tools))
	for _, rt := range r.tools {
		tools = append(tools, rt.tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs the handler for call. An unknown tool is an error; a
// handler error becomes a result with IsError set so the model can see it
// and recover.
func (r *Registry) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	r.mu.RLock()
	rt, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		return ai.ToolResult{}, &ErrToolNotFound{Name: call.Name}
	}

	content, err := rt.handler(ctx, call)
	if err != nil {
		return ai.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    err.Error(),
			IsError:    true,
		}, nil
	}
	return ai.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    content,
	}, nil
}

// Registration pairs a tool with its handler for Add.
type Registration struct {
	Tool    ai.Tool
	Handler Handler
}

// Func creates a Registration from a typed function. It panics if no
// schema can be derived from T.
func Func[T any](name, description string, fn TypedHandler[T]) Registration {
	t, h := MustBind(name, description, fn)
	return Registration{Tool: t, Handler: h}
}

// Add registers regs and returns r for chaining. It panics on duplicate
// names.
//
//	registry := tool.NewRegistry().Add(tool.Arithmetic()...)
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
	return r
}
