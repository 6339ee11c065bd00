package mcp

import (
	"context"
	"fmt"
	"log"

	"github.com/golemforge/golem-forge/internal/tool"
	"github.com/golemforge/golem-forge/internal/worker"
)

// Manager owns the lifecycle of the MCP server connections a single
// Toolset call opened, so its persistent clients can be closed once the
// worker run that used them is done.
type Manager struct {
	persistent map[string]*client
}

func newManager() *Manager {
	return &Manager{persistent: make(map[string]*client)}
}

// Toolset connects every server named in cfg.Servers, discovers its tools,
// and returns one tool.Tool per server-advertised tool. configs supplies
// connection details keyed by server name; a server named in cfg but
// absent from configs is a configuration error.
//
// Persistent servers stay connected for the lifetime of the returned
// Manager; per_call servers are connected only long enough to discover
// their tools, then closed, and reconnected transiently on every Execute.
func Toolset(ctx context.Context, cfg worker.CustomToolsetConfig, configs map[string]ServerConfig) ([]tool.Tool, *Manager, error) {
	mgr := newManager()
	var tools []tool.Tool

	for _, server := range cfg.Servers {
		sc, ok := configs[server.Name]
		if !ok {
			return nil, nil, fmt.Errorf("mcp: no connection config for server %q", server.Name)
		}

		cli := newClient(sc)
		if err := cli.connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("mcp: connect %q: %w", server.Name, err)
		}

		infos, err := cli.listTools(ctx)
		if err != nil {
			_ = cli.close()
			return nil, nil, fmt.Errorf("mcp: list tools %q: %w", server.Name, err)
		}

		lifecycle := sc.Lifecycle
		if lifecycle == "" {
			lifecycle = "persistent"
		}

		if lifecycle == "per_call" {
			// Discovery only; no persistent connection is kept.
			_ = cli.close()
			for _, info := range infos {
				tools = append(tools, newToolAdapter(server.Name, info, nil, sc))
			}
			log.Printf("[mcp] registered %d tool(s) from per_call server %q", len(infos), server.Name)
			continue
		}

		mgr.persistent[server.Name] = cli
		for _, info := range infos {
			tools = append(tools, newToolAdapter(server.Name, info, cli, sc))
		}
		log.Printf("[mcp] registered %d tool(s) from persistent server %q", len(infos), server.Name)
	}

	return tools, mgr, nil
}

// Close closes every persistent connection opened by Toolset. per_call
// servers hold no standing connection and need no cleanup here.
func (m *Manager) Close() error {
	var firstErr error
	for name, cli := range m.persistent {
		if err := cli.close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("mcp: close %q: %w", name, err)
		}
	}
	return firstErr
}
