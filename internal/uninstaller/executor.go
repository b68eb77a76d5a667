package uninstaller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Executor removes a single package.
type Executor interface {
	Uninstall(ctx context.Context, name string) error
}

// Failure is a package manager run that did not exit cleanly.
type Failure struct {
	Name   string
	Stderr string
	Err    error
}

func (f *Failure) Error() string {
	if f.Stderr != "" {
		return fmt.Sprintf("failed to uninstall %s: %v (stderr: %s)", f.Name, f.Err, f.Stderr)
	}
	return fmt.Sprintf("failed to uninstall %s: %v", f.Name, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Pip shells out to `<command...> uninstall -y <name>`.
type Pip struct {
	Command []string
}

// NewPip defaults to the interpreter's own pip module.
func NewPip(python string, command ...string) *Pip {
	if len(command) == 0 {
		if python == "" {
			python = "python3"
		}
		command = []string{python, "-m", "pip"}
	}
	return &Pip{Command: command}
}

// Uninstall waits for pip to finish. ctx only gates the start: a running pip
// is never killed, so a package is not left half removed.
func (p *Pip) Uninstall(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return &Failure{Name: name, Err: err}
	}
	if len(p.Command) == 0 {
		return &Failure{Name: name, Err: fmt.Errorf("no package manager command configured")}
	}
	args := append(append([]string(nil), p.Command[1:]...), "uninstall", "-y", name)
	cmd := exec.Command(p.Command[0], args...)
	detach(cmd)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &Failure{Name: name, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return nil
}

// DryRun reports success without touching anything.
type DryRun struct{}

func (DryRun) Uninstall(context.Context, string) error { return nil }
