package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rawdigits/sunshine-macos-displayupdater/internal/config"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/display"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/reconcile"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/sunshine"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "update":
		os.Exit(runUpdate(os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "service":
		os.Exit(runService(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sunshine-display <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Keeps Sunshine's output_name pinned to a display by name, surviving")
	fmt.Fprintln(w, "the identifier churn macOS produces on reboots and reconnects.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list                List all displays macOS currently reports")
	fmt.Fprintln(w, "  update <name>       Pin Sunshine to the named display and restart it")
	fmt.Fprintln(w, "  watch               Single reconciliation pass against the configured")
	fmt.Fprintln(w, "                      target display (intended for launchd)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  service status      Show Sunshine service/process state")
	fmt.Fprintln(w, "  service start       Start Sunshine if it is not running")
	fmt.Fprintln(w, "  service restart     Restart Sunshine")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Interactive display picker")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'sunshine-display <command> --help' for command-specific options.")
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sunshine-display list [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List all displays with the identifier Sunshine would use for each.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output display records as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "list takes no arguments")
		fs.Usage()
		return 2
	}

	profiler := display.NewProfiler(display.ProfilerConfig{})
	records, err := profiler.List(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []display.Record{}
		}
		if err := enc.Encode(records); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	fmt.Println("Available displays:")
	for _, d := range records {
		status := ""
		if d.Main {
			status = " (main)"
		}
		online := " [offline]"
		if d.Online {
			online = " [online]"
		}
		fmt.Printf("  - %s%s%s\n", d.Name, status, online)
		fmt.Printf("    ID: %s, Resolution: %s\n", d.ID, d.Resolution)
	}
	if len(records) == 0 {
		fmt.Println("  (none)")
	}
	return 0
}

func runUpdate(args []string) int {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sunshine-display update [--no-restart] [--config PATH] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Pin Sunshine's output_name to the display matching <name> and restart")
		fmt.Fprintln(os.Stderr, "Sunshine. The rewrite happens even when the identifier is unchanged.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	noRestart := fs.Bool("no-restart", false, "Do not restart Sunshine after updating")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/sunshine-display/config.yaml)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "update requires <name>")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return reconcileOnce(cfg, fs.Arg(0), reconcileOptions{
		noRestart: *noRestart || cfg.NoAutoRestart,
		force:     true,
	})
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sunshine-display watch [--no-restart] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run one reconciliation pass against the configured target display.")
		fmt.Fprintln(os.Stderr, "Writes and restarts only when the identifier actually changed, so a")
		fmt.Fprintln(os.Stderr, "launchd job can invoke this every minute at no cost.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	noRestart := fs.Bool("no-restart", false, "Do not restart Sunshine after updating")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/sunshine-display/config.yaml)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "watch takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if cfg.TargetDisplay == "" {
		fmt.Fprintln(os.Stderr, "target_display is not set; add it to the config or run 'sunshine-display tui'")
		return 1
	}

	return reconcileOnce(cfg, cfg.TargetDisplay, reconcileOptions{
		noRestart:     *noRestart || cfg.NoAutoRestart,
		ensureRunning: true,
	})
}

type reconcileOptions struct {
	noRestart     bool
	ensureRunning bool
	force         bool
}

func reconcileOnce(cfg *config.Config, target string, opts reconcileOptions) int {
	confPath, err := cfg.ResolveSunshineConf()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	profiler := display.NewProfiler(display.ProfilerConfig{})
	service := sunshine.NewService(sunshine.ServiceConfig{Candidates: cfg.ServiceNames})

	r := reconcile.New(reconcile.Config{
		ConfPath:      confPath,
		NoRestart:     opts.noRestart,
		EnsureRunning: opts.ensureRunning,
		Force:         opts.force,
		Logger:        newLogger(),
	}, profiler.List, service)

	res, err := r.Run(context.Background(), target)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if !res.Changed {
		fmt.Printf("No change needed (%s, ID %s)\n", res.Display.Name, res.Display.ID)
		return 0
	}
	fmt.Printf("Found display: %s\n", res.Display.Name)
	fmt.Printf("  ID: %s\n", res.Display.ID)
	if res.Display.Resolution != "" {
		fmt.Printf("  Resolution: %s\n", res.Display.Resolution)
	}
	fmt.Printf("Updated %s (output_name = %s)\n", confPath, res.Display.ID)
	if res.Restarted {
		fmt.Println("Sunshine restarted")
	} else if opts.noRestart {
		fmt.Println("Skipped restart; restart Sunshine for the change to take effect")
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  sunshine-display config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  sunshine-display config print [--path PATH]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/sunshine-display/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/sunshine-display/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		cfg, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if confPath, err := cfg.ResolveSunshineConf(); err == nil {
			fmt.Printf("# resolved_sunshine_conf: %s\n", confPath)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runService(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  sunshine-display service status")
		fmt.Fprintln(os.Stderr, "  sunshine-display service start")
		fmt.Fprintln(os.Stderr, "  sunshine-display service restart")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	service := sunshine.NewService(sunshine.ServiceConfig{Candidates: cfg.ServiceNames})
	ctx := context.Background()

	switch args[0] {
	case "status":
		flavor, started, err := service.Detect(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if flavor == "" {
			fmt.Println("service_flavor:  (not installed via brew)")
		} else {
			fmt.Printf("service_flavor:  %s\n", flavor)
			fmt.Printf("brew_started:    %v\n", started)
		}
		fmt.Printf("process_running: %v\n", service.IsRunning(ctx))
		return 0

	case "start":
		msg, err := service.EnsureRunning(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(msg)
		return 0

	case "restart":
		msg, err := service.Restart(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(msg)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown service subcommand: %s\n", args[0])
		return 2
	}
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/sunshine-display/config.yaml)")

	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: sunshine-display tui [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive picker: browse live displays, select one, and save it as")
		fmt.Fprintln(os.Stderr, "target_display.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓  Navigate displays")
		fmt.Fprintln(os.Stderr, "  Enter     Set selected display as target")
		fmt.Fprintln(os.Stderr, "  u         Set target and reconcile immediately")
		fmt.Fprintln(os.Stderr, "  r         Re-enumerate displays")
		fmt.Fprintln(os.Stderr, "  q, Esc    Quit")
		return 0
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	profiler := display.NewProfiler(display.ProfilerConfig{})
	err := tui.Run(*path, profiler.List, func(target string) error {
		cfg, err := loadConfig(*path)
		if err != nil {
			return err
		}
		if code := reconcileOnce(cfg, target, reconcileOptions{
			noRestart: cfg.NoAutoRestart,
			force:     true,
		}); code != 0 {
			return fmt.Errorf("update failed")
		}
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
