// Command golem-forge is the Cobra-based CLI entrypoint described in
// SPEC_FULL.md §2.1: loads .env, parses a worker file, builds an
// OpenAI-compatible model client, optionally connects MCP servers,
// registers the filesystem toolset over a sandbox, and runs the worker to
// completion against a console UI, resolving approvals from stdin and
// exposing Prometheus metrics. Env-driven wiring and bracketed log
// prefixes, restructured around spf13/cobra the way haasonsaas-nexus's
// cmd/nexus-edge does (see DESIGN.md for full grounding).
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/golemforge/golem-forge/internal/approval"
	"github.com/golemforge/golem-forge/internal/config"
	"github.com/golemforge/golem-forge/internal/delegation"
	"github.com/golemforge/golem-forge/internal/events"
	"github.com/golemforge/golem-forge/internal/llm"
	"github.com/golemforge/golem-forge/internal/llm/openai"
	"github.com/golemforge/golem-forge/internal/metrics"
	"github.com/golemforge/golem-forge/internal/runtime"
	"github.com/golemforge/golem-forge/internal/sandbox"
	"github.com/golemforge/golem-forge/internal/tool"
	"github.com/golemforge/golem-forge/internal/toolset/filesystem"
	"github.com/golemforge/golem-forge/internal/toolset/git"
	mcptoolset "github.com/golemforge/golem-forge/internal/toolset/mcp"
	"github.com/golemforge/golem-forge/internal/worker"
	"github.com/golemforge/golem-forge/internal/workerfile"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("[CLI] %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		workerPath    string
		workspaceDir  string
		input         string
		approvalMode  string
		mcpConfigPath string
		metricsAddr   string
	)

	cmd := &cobra.Command{
		Use:   "golem-forge",
		Short: "Run a worker definition through the worker runtime loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), runOptions{
				workerPath:    workerPath,
				workspaceDir:  workspaceDir,
				input:         input,
				approvalMode:  approvalMode,
				mcpConfigPath: mcpConfigPath,
				metricsAddr:   metricsAddr,
			})
		},
	}

	cmd.Flags().StringVar(&workerPath, "worker", "", "path to a worker file (required)")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "sandbox root directory (defaults to $WORKSPACE_DIR or cwd)")
	cmd.Flags().StringVar(&input, "input", "", "input text for the worker")
	cmd.Flags().StringVar(&approvalMode, "approval", "interactive", "approval mode: approve_all | strict | interactive")
	cmd.Flags().StringVar(&mcpConfigPath, "mcp-config", "", "path to an MCP server config file (optional)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus /metrics on (optional, e.g. :9090)")
	_ = cmd.MarkFlagRequired("worker")

	return cmd
}

type runOptions struct {
	workerPath    string
	workspaceDir  string
	input         string
	approvalMode  string
	mcpConfigPath string
	metricsAddr   string
}

func runWorker(ctx context.Context, opts runOptions) error {
	config.LoadEnv()

	fmt.Println("golem-forge worker runtime")

	data, err := os.ReadFile(opts.workerPath)
	if err != nil {
		return fmt.Errorf("read worker file: %w", err)
	}
	def, err := workerfile.ParseFile(data, opts.workerPath)
	if err != nil {
		return fmt.Errorf("parse worker file: %w", err)
	}
	fmt.Printf("[CLI] worker=%s mode=%s\n", def.Name, def.Mode)

	m := metrics.New()
	if opts.metricsAddr != "" {
		go serveMetrics(opts.metricsAddr)
	}

	model, err := openai.NewClientFromEnv()
	if err != nil {
		return fmt.Errorf("initialise model client: %w", err)
	}
	fmt.Printf("[CLI] model=%s contextWindow=%d\n", model.ID(), model.ContextWindow())

	workspace := resolveWorkspace(opts.workspaceDir)
	var sb *sandbox.Sandbox
	if def.RequiresSandbox() {
		sb, err = sandbox.New(sandbox.Config{Root: workspace})
		if err != nil {
			return fmt.Errorf("initialise sandbox: %w", err)
		}
		fmt.Printf("[CLI] sandbox root=%s\n", workspace)
	}

	registry := tool.NewRegistry()
	if def.Toolsets.Filesystem != nil {
		for _, t := range filesystem.Tools(sb) {
			registry.Register(t)
		}
	}
	if def.Toolsets.Git != nil {
		gitTools, err := git.Toolset(*def.Toolsets.Git)
		if err != nil {
			return fmt.Errorf("git toolset: %w", err)
		}
		for _, t := range gitTools {
			registry.Register(t)
		}
	}

	var mcpMgr *mcptoolset.Manager
	if def.Toolsets.Custom != nil && opts.mcpConfigPath != "" {
		configs, err := mcptoolset.LoadConfig(opts.mcpConfigPath)
		if err != nil {
			log.Printf("[CLI] WARNING: mcp config load failed: %v", err)
		} else {
			tools, mgr, err := mcptoolset.Toolset(ctx, *def.Toolsets.Custom, configs)
			if err != nil {
				log.Printf("[CLI] WARNING: mcp connect failed: %v", err)
			} else {
				mcpMgr = mgr
				for _, t := range tools {
					registry.Register(t)
				}
				fmt.Printf("[CLI] mcp tools registered: %d\n", len(tools))
			}
		}
	}
	if mcpMgr != nil {
		defer mcpMgr.Close()
	}

	ui := events.NewConsoleUI()
	approvalCtrl, err := newApprovalController(opts.approvalMode, ui)
	if err != nil {
		return fmt.Errorf("configure approval: %w", err)
	}

	bus := events.New()
	wireMetrics(bus, m)

	if def.Toolsets.Workers != nil {
		delegationTools, err := delegation.BuildTools(def.Toolsets.Workers.Allowed, delegation.Config{
			Registry:      staticRegistry{},
			Models:        sameModelResolver{model: model},
			Approval:      approvalCtrl,
			Bus:           bus,
			ParentSandbox: sb,
		})
		if err != nil {
			return fmt.Errorf("build delegation tools: %w", err)
		}
		for _, t := range delegationTools {
			registry.Register(t)
		}
	}

	sig := &runtime.Signal{}
	go watchInterrupts(sig)

	rt, err := runtime.New(runtime.Options{
		Definition:    def,
		Model:         model,
		Tools:         registry,
		Sandbox:       sb,
		Approval:      approvalCtrl,
		Bus:           bus,
		Interrupt:     sig,
		MaxIterations: runtime.DefaultMaxIterations,
	})
	if err != nil {
		return fmt.Errorf("construct runtime: %w", err)
	}

	result := rt.Run(ctx, worker.Input{Content: opts.input}, ui)

	if !result.Success {
		ui.EndSession(events.SessionEndPayload{Reason: events.SessionEndError, Message: result.Error})
		return fmt.Errorf("worker run failed: %s", result.Error)
	}
	ui.EndSession(events.SessionEndPayload{Reason: events.SessionEndCompleted, Message: result.Response})
	fmt.Println(result.Response)
	return nil
}

func resolveWorkspace(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("WORKSPACE_DIR"); env != "" {
		return env
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

func newApprovalController(mode string, ui *events.ConsoleUI) (*approval.Controller, error) {
	m := approval.Mode(mode)
	if m != approval.ModeApproveAll && m != approval.ModeStrict {
		m = approval.ModeInteractive
	}
	var callback approval.Callback
	if m == approval.ModeInteractive {
		callback = func(ctx context.Context, req approval.Request) (approval.Decision, error) {
			decision, err := ui.RequestApproval(ctx, events.ApprovalRequiredPayload{
				RequestID:   events.NewRequestID(),
				ToolName:    req.ToolName,
				ToolArgs:    req.ToolArgs,
				Description: req.Description,
			})
			if err != nil {
				return approval.Decision{}, err
			}
			return approval.Decision{
				Approved: decision.Approved,
				Remember: approval.Remember(decision.Remember),
				Note:     decision.Note,
			}, nil
		}
	}
	return approval.New(m, callback, approval.NewMemory())
}

// wireMetrics subscribes a Metrics sink to the tool executor's
// observability events (spec.md §4.2), translating them into Prometheus
// observations without the executor or runtime knowing metrics exist,
// grounded in the bus-subscription decoupling ConsoleUI itself uses.
func wireMetrics(bus *events.Bus, m *metrics.Metrics) {
	bus.Subscribe(events.EventToolCallEnd, func(payload any) {
		p, ok := payload.(events.ToolResultPayload)
		if !ok {
			return
		}
		outcome := "success"
		if p.IsError {
			outcome = "error"
		}
		m.ToolCalls.WithLabelValues(p.ToolName, outcome).Inc()
		m.ToolCallDuration.WithLabelValues(p.ToolName).Observe(float64(p.DurationMs) / 1000)
	})
	bus.Subscribe(events.EventToolCallError, func(payload any) {
		p, ok := payload.(events.ToolResultPayload)
		if !ok {
			return
		}
		m.ToolCalls.WithLabelValues(p.ToolName, "error").Inc()
		m.ToolCallDuration.WithLabelValues(p.ToolName).Observe(float64(p.DurationMs) / 1000)
	})
	bus.Subscribe(events.EventApprovalDecision, func(payload any) {
		decision, ok := payload.(approval.Decision)
		if !ok {
			return
		}
		scope := string(decision.Remember)
		outcome := "approved"
		if !decision.Approved {
			outcome = "denied"
		}
		m.ObserveApproval(scope, outcome)
	})
	bus.Subscribe(events.EventMessageSend, func(any) {
		m.ObserveIteration("", "continue")
	})
	bus.Subscribe(events.EventTokensUsed, func(payload any) {
		p, ok := payload.(events.TokensUsedPayload)
		if !ok {
			return
		}
		m.ObserveTokens(p.WorkerName, p.InputTokens, p.OutputTokens)
	})
	bus.Subscribe(events.EventDelegationDepth, func(payload any) {
		p, ok := payload.(events.DelegationDepthPayload)
		if !ok {
			return
		}
		m.ObserveDelegationDepth(p.Depth)
	})
}

func watchInterrupts(sig *runtime.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
	log.Println("[CLI] interrupt received, finishing current iteration")
	sig.Set()
}

// staticRegistry is a placeholder delegation.Registry for single-worker
// CLI invocations: no other worker files are loaded, so every lookup
// fails with "not found", which is itself a meaningful, exact-format
// error surfaced to the delegating model (spec.md §4.6 step 1).
type staticRegistry struct{}

func (staticRegistry) GetDefinition(string) (*worker.Definition, bool) { return nil, false }

// sameModelResolver resolves every child worker to the same model the
// parent is using, since this CLI only wires a single model client.
type sameModelResolver struct{ model llm.Model }

func (r sameModelResolver) Resolve(*worker.Definition) (llm.Model, error) { return r.model, nil }

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("[CLI] metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[CLI] metrics server stopped: %v", err)
	}
}
