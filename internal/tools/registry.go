// File: internal/tools/registry.go
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hyhfish/playwright-mcp/internal/session"
)

// ErrDuplicateTool means two actions were registered under the same name.
// This is fatal at startup.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Options controls which actions a registry exposes and how their results
// are rendered.
type Options struct {
	// CaptureSnapshots is handed to every action factory; actions echo it
	// back in their results unmodified.
	CaptureSnapshots bool
	// Capabilities filters the exposed actions. Empty means all.
	Capabilities []Capability
	// StabilizeWait bounds the settle wait for actions that request one.
	StabilizeWait time.Duration
}

// Factory builds one action definition under the given capture policy.
type Factory func(captureSnapshot bool) (Definition, error)

// DefaultFactories lists the built-in browser actions.
func DefaultFactories() []Factory {
	return []Factory{Navigate, NavigateBack, NavigateForward, Tabs, CloseBrowser}
}

// Registry owns the set of exposed actions and dispatches tool calls
// against a single session context.
type Registry struct {
	logger *zap.Logger
	sc     *session.Context
	opts   Options

	defs   []Definition
	byName map[string]Definition
}

// NewRegistry builds an empty registry bound to the session context.
func NewRegistry(sc *session.Context, opts Options, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger.Named("tools"),
		sc:     sc,
		opts:   opts,
		byName: make(map[string]Definition),
	}
}

// DefaultRegistry builds a registry populated with the built-in actions.
func DefaultRegistry(sc *session.Context, opts Options, logger *zap.Logger) (*Registry, error) {
	r := NewRegistry(sc, opts, logger)
	for _, factory := range DefaultFactories() {
		def, err := factory(opts.CaptureSnapshots)
		if err != nil {
			return nil, err
		}
		if err := r.Add(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers a definition. Names are unique across the registry even for
// actions filtered out by capability, so collisions surface regardless of
// deployment configuration.
func (r *Registry) Add(def Definition) error {
	name := def.Schema().Name
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.byName[name] = def
	if !r.enabled(def.Schema().Capability) {
		r.logger.Debug("Action filtered out by capability.", zap.String("tool", name), zap.String("capability", string(def.Schema().Capability)))
		return nil
	}
	r.defs = append(r.defs, def)
	return nil
}

func (r *Registry) enabled(c Capability) bool {
	if len(r.opts.Capabilities) == 0 {
		return true
	}
	for _, want := range r.opts.Capabilities {
		if want == c {
			return true
		}
	}
	return false
}

// Definitions returns the exposed actions in registration order.
func (r *Registry) Definitions() []Definition {
	return append([]Definition(nil), r.defs...)
}

// Dispatch runs the named exposed action through the full validation and
// rendering pipeline, outside any MCP transport.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	for _, def := range r.defs {
		if def.Schema().Name == name {
			req := mcp.CallToolRequest{}
			req.Params.Name = name
			req.Params.Arguments = args
			return r.handlerFor(def)(ctx, req)
		}
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

// Install registers every exposed action on the MCP server.
func (r *Registry) Install(srv *mcpserver.MCPServer) {
	for _, def := range r.defs {
		srv.AddTool(def.Schema().MCPTool(), r.handlerFor(def))
	}
	r.logger.Info("Actions installed.", zap.Int("count", len(r.defs)))
}

// handlerFor wraps a definition in the dispatch pipeline: validate the
// arguments, run the handler, then render the result. Validation failures
// and handler errors are reported to the caller as tool errors, never as
// protocol errors.
func (r *Registry) handlerFor(def Definition) mcpserver.ToolHandlerFunc {
	schema := def.Schema()
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		r.logger.Debug("Dispatching tool call.", zap.String("tool", schema.Name))
		result, err := def.Call(ctx, r.sc, args)
		if err != nil {
			if errors.Is(err, ErrValidation) {
				r.logger.Debug("Rejected tool call.", zap.String("tool", schema.Name), zap.Error(err))
			} else {
				r.logger.Warn("Tool call failed.", zap.String("tool", schema.Name), zap.Error(err))
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(r.render(ctx, result)), nil
	}
}

// render turns a handler result into the textual tool response. The replay
// code always leads; a page snapshot follows when the action asked for one
// and a tab is live.
func (r *Registry) render(ctx context.Context, result *Result) string {
	var b strings.Builder
	b.WriteString(strings.Join(result.Code, "\n"))

	if r.sc.State() != session.StateActive {
		return b.String()
	}
	tab, err := r.sc.AcquireTab(ctx, session.AcquireExisting)
	if err != nil {
		return b.String()
	}

	if result.WaitForNetwork {
		if err := tab.Page().WaitStable(ctx, r.opts.StabilizeWait); err != nil {
			r.logger.Debug("Settle wait did not complete.", zap.Error(err))
		}
	}
	if result.CaptureSnapshot {
		url, urlErr := tab.Page().URL(ctx)
		title, titleErr := tab.Page().Title(ctx)
		if urlErr == nil && titleErr == nil {
			fmt.Fprintf(&b, "\n\n// Page state\n// URL: %s\n// Title: %s", url, title)
		}
	}
	return b.String()
}
