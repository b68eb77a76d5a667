package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"py-package-man/internal/scanner"
	"py-package-man/internal/uninstaller"
	"py-package-man/pkg/utils"
)

func newUninstallCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "uninstall NAME...",
		Short: "Uninstall packages without the interactive list",
		Long: `Uninstall the named packages one at a time, in the order given.

A failed package is reported and skipped. Press Ctrl-C once to stop before the
next package; the package being removed is allowed to finish.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runUninstall(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// resolveTargets maps requested names onto a fresh snapshot, refusing
// protected and unknown packages.
func resolveTargets(snap scanner.Snapshot, excl scanner.Exclusions, names []string) ([]scanner.Package, error) {
	seen := map[string]struct{}{}
	var targets []scanner.Package
	for _, name := range names {
		if excl.Excludes(name) {
			return nil, fmt.Errorf("refusing to uninstall %s: protected package", name)
		}
		pkg, ok := snap.Find(name)
		if !ok {
			return nil, fmt.Errorf("package %q is not installed", name)
		}
		key := strings.ToLower(pkg.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		targets = append(targets, pkg)
	}
	return targets, nil
}

func confirmAction(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// cancelOnInterrupt cancels token on the first SIGINT. A second interrupt gets
// the default behaviour. stop releases the handler and waits for it to exit.
func cancelOnInterrupt(token *uninstaller.Token, errOut io.Writer) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-sigCh:
			token.Cancel()
			fmt.Fprintln(errOut, "\nCancelling after the current package... (Ctrl-C again to abort)")
			signal.Stop(sigCh)
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
			wg.Wait()
		})
	}
}

func runUninstall(ctx context.Context, in io.Reader, out, errOut io.Writer, opts *options, names []string, yes bool) error {
	snap, err := scanner.Scan(ctx, opts.provider(), opts.scanOptions())
	if err != nil {
		return err
	}
	excl, err := scanner.DefaultExclusions().With(opts.excludes...)
	if err != nil {
		return err
	}
	targets, err := resolveTargets(snap, excl, names)
	if err != nil {
		return err
	}

	var total int64
	for _, t := range targets {
		total += t.Size
		fmt.Fprintf(out, "%10s | %s\n", utils.FormatSize(t.Size), t.Name)
	}
	if !yes && !confirmAction(in, out, fmt.Sprintf("Uninstall %d package(s)?\nTotal size: %s\n", len(targets), utils.FormatSize(total))) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	token := uninstaller.NewToken()
	stop := cancelOnInterrupt(token, errOut)
	defer stop()

	var sum uninstaller.Summary
	for ev := range uninstaller.Start(ctx, opts.executor(), targets, token) {
		switch e := ev.(type) {
		case uninstaller.Step:
			fmt.Fprintf(out, "Uninstalling: %s\n", e.Name)
		case uninstaller.Succeeded:
			fmt.Fprintf(out, "[%d/%d] removed %s\n", e.Completed, e.Total, e.Name)
		case uninstaller.Failed:
			fmt.Fprintf(errOut, "Error: %v\n", e.Err)
			e.Dismiss()
		case uninstaller.Finished:
			sum = e.Summary
		}
	}

	if sum.Cancelled {
		fmt.Fprintln(out, "Uninstallation Cancelled.")
	} else {
		fmt.Fprintln(out, "Done.")
	}
	fmt.Fprintf(out, "Removed %d/%d, freed %s\n", sum.Completed(), sum.Total, utils.HumanizeBytes(sum.Freed))
	if len(sum.Failures) > 0 {
		return fmt.Errorf("%d package(s) failed to uninstall", len(sum.Failures))
	}
	return nil
}
