package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"py-package-man/internal/scanner"
	ui "py-package-man/internal/tui"
	"py-package-man/internal/uninstaller"
	"py-package-man/internal/watcher"
	"py-package-man/pkg/utils"
)

type options struct {
	python      string
	pip         string
	sites       []string
	excludes    []string
	concurrency int
	dryRun      bool
	watch       bool
	list        bool
	jsonOut     bool
	logFile     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var closeLog func()

	root := &cobra.Command{
		Use:   "py-package-man",
		Short: "List installed Python packages by size and uninstall them",
		Long: `py-package-man lists the packages installed in a Python environment with
their on-disk size, and lets you select and uninstall several at once.

Core tooling (pip, setuptools, wheel, py, pywin32) and the interpreter's own
python* distributions are never listed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := scanner.DefaultExclusions().With(opts.excludes...); err != nil {
				return err
			}
			c, err := setupLogging(opts.logFile)
			if err != nil {
				return err
			}
			closeLog = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if closeLog != nil {
				closeLog()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.python, "python", "python3", "Python interpreter whose packages are managed")
	pf.StringVar(&opts.pip, "pip", "", `Uninstall command (default "<python> -m pip")`)
	pf.StringSliceVar(&opts.sites, "site-packages", nil, "Read packages from these site directories instead of asking pip (can repeat)")
	pf.StringSliceVarP(&opts.excludes, "exclude", "x", nil, "Extra package names or glob patterns to hide (can repeat)")
	pf.IntVarP(&opts.concurrency, "concurrency", "c", runtime.NumCPU(), "Concurrency for size calculations")
	pf.BoolVarP(&opts.dryRun, "dry-run", "d", false, "Do not uninstall anything; simulate success")
	pf.StringVar(&opts.logFile, "log-file", "", "Append diagnostic logs to this file")

	f := root.Flags()
	f.BoolVarP(&opts.watch, "watch", "w", false, "Rescan when the site directories change")
	f.BoolVarP(&opts.list, "list", "l", false, "Print the package list instead of starting the UI")
	f.BoolVar(&opts.jsonOut, "json", false, "Print the package list as JSON")

	root.AddCommand(newUninstallCmd(opts))
	return root
}

// setupLogging sends the standard logger to a file; the UI owns the terminal.
func setupLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() { f.Close() }, nil
}

func (o *options) provider() scanner.Provider {
	if len(o.sites) > 0 {
		return scanner.SiteDirs{Dirs: o.sites}
	}
	return scanner.NewPipInspect(o.python)
}

func (o *options) executor() uninstaller.Executor {
	if o.dryRun {
		return uninstaller.DryRun{}
	}
	return uninstaller.NewPip(o.python, strings.Fields(o.pip)...)
}

func (o *options) scanOptions() scanner.Options {
	return scanner.Options{Concurrency: o.concurrency, Exclude: o.excludes}
}

func stdoutIsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func runRoot(ctx context.Context, out io.Writer, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.list || opts.jsonOut || !stdoutIsTTY(out) {
		return printList(ctx, out, opts)
	}

	cfg := ui.Config{
		Ctx:      ctx,
		Provider: opts.provider(),
		Executor: opts.executor(),
		Scan:     opts.scanOptions(),
		DryRun:   opts.dryRun,
	}
	if opts.watch {
		dirs, err := watchDirs(ctx, cfg.Provider, opts.sites)
		if err != nil {
			return err
		}
		w, err := watcher.New(dirs, watcher.DefaultDebounce)
		if err != nil {
			return err
		}
		w.Start()
		defer w.Stop()
		cfg.Notifier = w
	}
	if err := ui.Run(cfg); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// watchDirs returns the distinct site directories packages live in.
func watchDirs(ctx context.Context, provider scanner.Provider, sites []string) ([]string, error) {
	if len(sites) > 0 {
		return sites, nil
	}
	entries, err := provider.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve site directories: %w", err)
	}
	seen := map[string]struct{}{}
	var dirs []string
	for _, e := range entries {
		if e.Location == "" {
			continue
		}
		if _, ok := seen[e.Location]; ok {
			continue
		}
		seen[e.Location] = struct{}{}
		dirs = append(dirs, e.Location)
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no site directories to watch")
	}
	return dirs, nil
}

type listedPackage struct {
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
	Location  string `json:"location,omitempty"`
	SizeBytes int64  `json:"sizeBytes"`
	Size      string `json:"size"`
}

func printList(ctx context.Context, out io.Writer, opts *options) error {
	start := time.Now()
	snap, err := scanner.Scan(ctx, opts.provider(), opts.scanOptions())
	if err != nil {
		return err
	}

	if opts.jsonOut {
		pkgs := make([]listedPackage, 0, snap.Len())
		for _, p := range snap.Packages() {
			pkgs = append(pkgs, listedPackage{Name: p.Name, Version: p.Version, Location: p.Location, SizeBytes: p.Size, Size: utils.FormatSize(p.Size)})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		payload := struct {
			Python    string          `json:"python,omitempty"`
			TotalSize int64           `json:"totalSize"`
			Packages  []listedPackage `json:"packages"`
			Duration  string          `json:"duration"`
		}{TotalSize: snap.TotalSize(), Packages: pkgs, Duration: time.Since(start).String()}
		if len(opts.sites) == 0 {
			payload.Python = opts.python
		}
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("failed to write json: %w", err)
		}
		return nil
	}

	fmt.Fprintf(out, "py-package-man\nfound: %d\n", snap.Len())
	fmt.Fprintln(out, "----------------------------------------------")
	for _, p := range snap.Packages() {
		fmt.Fprintf(out, "%10s | %s\n", utils.FormatSize(p.Size), p.Name)
	}
	fmt.Fprintln(out, "----------------------------------------------")
	fmt.Fprintf(out, "Total size: %s (%s)\n", utils.FormatSize(snap.TotalSize()), utils.HumanizeBytes(snap.TotalSize()))
	fmt.Fprintf(out, "Duration: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
