// Package registry implements the Tool Registry (C1): a read-only
// catalog of callable tools, the server group that owns each, and a
// transport-agnostic dispatch entry point. Mirrors the teacher's
// tools/naming canonical-name convention and edge-client handler map.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// Handler dispatches one tool call to its owning backend server and
// returns the uniform ToolResult shape (spec.md §6).
type Handler func(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error)

// entry pairs a ToolDescriptor with its handler and, if the descriptor's
// parameter schema compiled, a validator for resolved call parameters.
type entry struct {
	descriptor mealmodel.ToolDescriptor
	handler    Handler
	schema     *jsonschema.Schema
}

// Registry is the read-only (after Register calls at startup) tool
// catalog described by C1.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a tool to the catalog. It is intended to be called only
// during startup wiring, before any Dispatch call; Registry does not
// protect against registering the same name twice mid-traffic being a
// meaningful operation, but the lock still makes it memory-safe.
func (r *Registry) Register(desc mealmodel.ToolDescriptor, handler Handler) error {
	if desc.Name == "" {
		return fmt.Errorf("registry: tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("registry: handler is required for %q", desc.Name)
	}

	sch, err := compileParameterSchema(desc)
	if err != nil {
		return fmt.Errorf("registry: compiling schema for %q: %w", desc.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[desc.Name] = &entry{descriptor: desc, handler: handler, schema: sch}
	return nil
}

// Lookup returns the ToolDescriptor for name, or UnknownTool.
func (r *Registry) Lookup(name string) (mealmodel.ToolDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return mealmodel.ToolDescriptor{}, mealerr.New(mealerr.KindUnknownTool, name)
	}
	return e.descriptor, nil
}

// Has reports whether name is a known "service.method" tool.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// ValidateSchema runs the tool's compiled JSON Schema (if any) against
// already-resolved parameters. Used by the executor (C9) after the
// parameter resolver (C8) has turned references into concrete values,
// ahead of actually dispatching the call.
func (r *Registry) ValidateSchema(name string, params map[string]any) error {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return mealerr.New(mealerr.KindUnknownTool, name)
	}
	if e.schema == nil {
		return nil
	}
	// jsonschema validates against any decoded JSON value; map[string]any
	// round-trips cleanly since ParameterSpec only deals in JSON-ish types.
	if err := e.schema.Validate(map[string]any(params)); err != nil {
		return mealerr.Wrap(mealerr.KindParameterResolve, "parameter schema validation failed", err)
	}
	return nil
}

// Dispatch forwards params to the tool's owning server. Dispatch is
// idempotent only for read operations (spec.md §4.1); the executor must
// treat a SideEffecting tool's retried call as at-most-once.
func (r *Registry) Dispatch(ctx context.Context, name string, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return mealmodel.ToolResult{}, mealerr.New(mealerr.KindUnknownTool, name)
	}
	return e.handler(ctx, params, authToken)
}

// SideEffecting reports whether a registered tool may mutate external
// state. Unknown tools are conservatively treated as side-effecting.
func (r *Registry) SideEffecting(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return true
	}
	return e.descriptor.SideEffecting
}

// MayBeAmbiguous reports whether a registered tool can report the
// AMBIGUITY_DETECTED marker.
func (r *Registry) MayBeAmbiguous(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return ok && e.descriptor.MayBeAmbiguous
}

func compileParameterSchema(desc mealmodel.ToolDescriptor) (*jsonschema.Schema, error) {
	if len(desc.Parameters) == 0 {
		return nil, nil
	}

	properties := make(map[string]any, len(desc.Parameters))
	var required []string
	for name, spec := range desc.Parameters {
		properties[name] = map[string]any{"type": jsonType(spec.Type)}
		if spec.Required {
			required = append(required, name)
		}
	}

	raw := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		raw["required"] = required
	}

	compiler := jsonschema.NewCompiler()
	resourceName := desc.Name + ".schema.json"
	if err := compiler.AddResource(resourceName, toJSONReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(resourceName)
}

func jsonType(t string) string {
	switch t {
	case "string", "number", "boolean", "object", "array":
		return t
	default:
		return "string"
	}
}
