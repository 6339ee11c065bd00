package tool

import (
	"log"
	"sort"
	"sync"
)

// Registry manages registered tools with thread-safe access.
//
// A Registry can be either a "root" registry (parent == nil) that owns its
// tools map, or a "view" registry (parent != nil) created by WithExtra
// that overlays additional tools on top of a parent. Views delegate
// Get/List to the parent, so changes to the parent (Register/Unregister)
// are immediately visible through the view — grounded in the teacher's
// internal/tool.Registry (same view/WithExtra mechanism, used there for
// per-request tools like update_plan). No code in this module calls
// WithExtra at present.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	parent *Registry
}

// NewRegistry creates an empty root tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, overwriting and warning on name collision.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		log.Printf("[Registry] WARNING: overwriting existing tool %q", t.Name())
	}
	r.tools[t.Name()] = t
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get retrieves a tool by name. View registries check extras first, then
// delegate to the parent.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if ok {
		return t, true
	}
	if r.parent != nil {
		return r.parent.Get(name)
	}
	return nil, false
}

// List returns all registered tools sorted by name. View registries merge
// the parent's tools with this view's extras, extras taking precedence.
func (r *Registry) List() []Tool {
	if r.parent != nil {
		return r.listView()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		result = append(result, t)
	}
	sortByName(result)
	return result
}

func (r *Registry) listView() []Tool {
	parentTools := r.parent.List()

	r.mu.RLock()
	extras := make(map[string]Tool, len(r.tools))
	for k, v := range r.tools {
		extras[k] = v
	}
	r.mu.RUnlock()

	result := make([]Tool, 0, len(parentTools)+len(extras))
	for _, t := range parentTools {
		if _, overridden := extras[t.Name()]; !overridden {
			result = append(result, t)
		}
	}
	for _, t := range extras {
		result = append(result, t)
	}
	sortByName(result)
	return result
}

func sortByName(tools []Tool) {
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
}

// LLMVisible returns the tools the model should be offered: every
// registered tool except those whose ManualExecution.Mode is
// manual_only (spec.md §4.1 "Iteration": "tools whose manualExecution.mode
// is manual_only are excluded from this set but remain executable on
// explicit manual invocation").
func (r *Registry) LLMVisible() []Tool {
	all := r.List()
	visible := make([]Tool, 0, len(all))
	for _, t := range all {
		if t.ManualExecution().Mode == ManualModeManualOnly {
			continue
		}
		visible = append(visible, t)
	}
	return visible
}

// ManualCatalogue returns every tool whose ManualExecution.Mode is
// manual_only or both — the set the UI should offer for manual invocation
// (spec.md §3 "Tool": "exposed as a catalogue to the UI").
func (r *Registry) ManualCatalogue() []Tool {
	all := r.List()
	manual := make([]Tool, 0)
	for _, t := range all {
		switch t.ManualExecution().Mode {
		case ManualModeManualOnly, ManualModeBoth:
			manual = append(manual, t)
		}
	}
	return manual
}

// WithExtra returns a view of this Registry with additional tools
// overlaid. Can be chained: root.WithExtra(a).WithExtra(b).
func (r *Registry) WithExtra(extras ...Tool) *Registry {
	extrasMap := make(map[string]Tool, len(extras))
	for _, t := range extras {
		extrasMap[t.Name()] = t
	}
	return &Registry{parent: r, tools: extrasMap}
}
