package scanner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Entry is what a metadata provider knows about one installed distribution.
type Entry struct {
	Name     string
	Version  string
	Location string // site directory holding the package
}

// Provider enumerates installed distributions.
type Provider interface {
	Installed(ctx context.Context) ([]Entry, error)
}

// CommandRunner runs a command and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s failed: %w (stderr: %s)", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// pipInspectOutput is the subset of `pip inspect` we read.
type pipInspectOutput struct {
	Installed []pipInstalled `json:"installed"`
}

type pipInstalled struct {
	Metadata struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"metadata"`
	MetadataLocation string `json:"metadata_location"`
}

// PipInspect asks the interpreter's pip for its installed set.
type PipInspect struct {
	Python string
	Run    CommandRunner
}

// NewPipInspect returns a provider backed by `<python> -m pip inspect`.
func NewPipInspect(python string) *PipInspect {
	if python == "" {
		python = "python3"
	}
	return &PipInspect{Python: python, Run: runCommand}
}

func (p *PipInspect) Installed(ctx context.Context) ([]Entry, error) {
	run := p.Run
	if run == nil {
		run = runCommand
	}
	out, err := run(ctx, p.Python, "-m", "pip", "inspect", "--local")
	if err != nil {
		return nil, err
	}
	var report pipInspectOutput
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("failed to parse pip inspect output: %w", err)
	}
	entries := make([]Entry, 0, len(report.Installed))
	for _, d := range report.Installed {
		if d.Metadata.Name == "" {
			continue
		}
		loc := ""
		if d.MetadataLocation != "" {
			loc = filepath.Dir(d.MetadataLocation)
		}
		entries = append(entries, Entry{Name: d.Metadata.Name, Version: d.Metadata.Version, Location: loc})
	}
	return entries, nil
}

// SiteDirs reads distribution metadata straight from site directories.
type SiteDirs struct {
	Dirs []string
}

func (s SiteDirs) Installed(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	for _, dir := range s.Dirs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		des, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read site directory %s: %w", dir, err)
		}
		for _, d := range des {
			name := d.Name()
			var metaFile string
			switch {
			case strings.HasSuffix(name, ".dist-info") && d.IsDir():
				metaFile = filepath.Join(dir, name, "METADATA")
			case strings.HasSuffix(name, ".egg-info") && d.IsDir():
				metaFile = filepath.Join(dir, name, "PKG-INFO")
			case strings.HasSuffix(name, ".egg-info"):
				metaFile = filepath.Join(dir, name)
			default:
				continue
			}
			e := entryFromDirName(name)
			if pn, pv := readMetadata(metaFile); pn != "" {
				e.Name, e.Version = pn, pv
			}
			if e.Name == "" {
				continue
			}
			e.Location = dir
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// entryFromDirName parses "foo_bar-1.0.dist-info" style names.
func entryFromDirName(name string) Entry {
	base := strings.TrimSuffix(strings.TrimSuffix(name, ".dist-info"), ".egg-info")
	n, v, _ := strings.Cut(base, "-")
	return Entry{Name: n, Version: v}
}

// readMetadata pulls Name and Version from an RFC 822 style metadata file.
func readMetadata(path string) (string, string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()
	// A malformed line ends the header block; whatever was read before it is kept.
	hdr, _ := textproto.NewReader(bufio.NewReader(f)).ReadMIMEHeader()
	if hdr == nil {
		return "", ""
	}
	return strings.TrimSpace(hdr.Get("Name")), strings.TrimSpace(hdr.Get("Version"))
}
