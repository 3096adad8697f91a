// File: internal/tools/tool.go
// Package tools implements the action layer: declarative schemas bound to
// handler functions by a uniform factory, aggregated by a registry that
// dispatches validated MCP tool calls against the session context.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hyhfish/playwright-mcp/internal/session"
)

// Kind classifies what an action does to session state. Clients use it to
// warn before invoking destructive actions.
type Kind string

const (
	KindReadOnly    Kind = "readOnly"
	KindDestructive Kind = "destructive"
)

// Capability tags an action for access filtering. A registry built for a
// subset of capabilities exposes only matching actions.
type Capability string

const (
	CapabilityCore Capability = "core"
	CapabilityTabs Capability = "tabs"
)

var (
	// ErrSchemaIncomplete means an action was registered with a structurally
	// incomplete schema. This is fatal at startup.
	ErrSchemaIncomplete = errors.New("action schema is incomplete")

	// ErrValidation means caller-supplied arguments do not match the action's
	// input shape. The handler has not run when this is returned.
	ErrValidation = errors.New("arguments failed validation")
)

// Property describes one input argument.
type Property struct {
	Name        string
	Type        string // "string" or "number"
	Description string
	Required    bool
	Enum        []string
}

// Schema is the declarative description of one action.
type Schema struct {
	Name        string
	Title       string
	Description string
	Kind        Kind
	Capability  Capability
	Properties  []Property
}

// Result is the uniform output contract of every action handler.
type Result struct {
	// Code is the replay script fragment describing the effect performed,
	// for audit and reproduction.
	Code []string
	// CaptureSnapshot mirrors the capture policy the action was built with;
	// it is never recomputed per call.
	CaptureSnapshot bool
	// WaitForNetwork tells the dispatcher to wait for the page to settle
	// before returning control.
	WaitForNetwork bool
}

// Handler performs the browser effect of one action. Arguments have already
// been validated against the action's schema.
type Handler func(ctx context.Context, sc *session.Context, args map[string]any) (*Result, error)

// Definition binds a schema to its handler. Immutable after Define.
type Definition struct {
	schema  Schema
	handler Handler
}

// Schema returns the action's declarative schema.
func (d Definition) Schema() Schema { return d.schema }

// Call validates args against the schema and, only if they pass, runs the
// handler. A validation error guarantees the handler never ran.
func (d Definition) Call(ctx context.Context, sc *session.Context, args map[string]any) (*Result, error) {
	if err := d.schema.ValidateArgs(args); err != nil {
		return nil, err
	}
	return d.handler(ctx, sc, args)
}

// Define is the uniform action factory. It checks the schema for structural
// completeness only; argument validation happens at dispatch time.
func Define(schema Schema, handler Handler) (Definition, error) {
	switch {
	case schema.Name == "":
		return Definition{}, fmt.Errorf("%w: name is required", ErrSchemaIncomplete)
	case schema.Title == "":
		return Definition{}, fmt.Errorf("%w: %s has no title", ErrSchemaIncomplete, schema.Name)
	case schema.Description == "":
		return Definition{}, fmt.Errorf("%w: %s has no description", ErrSchemaIncomplete, schema.Name)
	case schema.Kind != KindReadOnly && schema.Kind != KindDestructive:
		return Definition{}, fmt.Errorf("%w: %s has invalid kind %q", ErrSchemaIncomplete, schema.Name, schema.Kind)
	case schema.Capability == "":
		return Definition{}, fmt.Errorf("%w: %s has no capability", ErrSchemaIncomplete, schema.Name)
	case handler == nil:
		return Definition{}, fmt.Errorf("%w: %s has no handler", ErrSchemaIncomplete, schema.Name)
	}
	for _, p := range schema.Properties {
		if p.Name == "" || (p.Type != "string" && p.Type != "number") {
			return Definition{}, fmt.Errorf("%w: %s has malformed property %q", ErrSchemaIncomplete, schema.Name, p.Name)
		}
	}
	return Definition{schema: schema, handler: handler}, nil
}

// MCPTool renders the schema as an MCP tool declaration.
func (s Schema) MCPTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(s.Description),
		mcp.WithTitleAnnotation(s.Title),
		mcp.WithReadOnlyHintAnnotation(s.Kind == KindReadOnly),
		mcp.WithDestructiveHintAnnotation(s.Kind == KindDestructive),
	}
	for _, p := range s.Properties {
		var propOpts []mcp.PropertyOption
		if p.Description != "" {
			propOpts = append(propOpts, mcp.Description(p.Description))
		}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		if len(p.Enum) > 0 {
			propOpts = append(propOpts, mcp.Enum(p.Enum...))
		}
		switch p.Type {
		case "number":
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(s.Name, opts...)
}

// ValidateArgs checks caller-supplied arguments against the schema: required
// properties must be present, types must match, and unknown keys are
// rejected. The handler must not run when this returns an error.
func (s Schema) ValidateArgs(args map[string]any) error {
	known := make(map[string]Property, len(s.Properties))
	for _, p := range s.Properties {
		known[p.Name] = p
	}

	for name := range args {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%w: unknown argument %q for %s", ErrValidation, name, s.Name)
		}
	}

	for _, p := range s.Properties {
		value, present := args[p.Name]
		if !present {
			if p.Required {
				return fmt.Errorf("%w: %s requires argument %q", ErrValidation, s.Name, p.Name)
			}
			continue
		}
		switch p.Type {
		case "string":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: argument %q must be a string", ErrValidation, p.Name)
			}
			if len(p.Enum) > 0 && !containsString(p.Enum, str) {
				return fmt.Errorf("%w: argument %q must be one of %v", ErrValidation, p.Name, p.Enum)
			}
		case "number":
			switch value.(type) {
			case float64, int, int64:
			default:
				return fmt.Errorf("%w: argument %q must be a number", ErrValidation, p.Name)
			}
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// argString reads an optional string argument, defaulting to "".
func argString(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

// argInt reads an optional numeric argument. JSON numbers arrive as float64.
func argInt(args map[string]any, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
