package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"py-package-man/internal/scanner"
	"py-package-man/internal/uninstaller"
	"py-package-man/pkg/utils"
)

var (
	ErrNoSelection = errors.New("no packages selected")
	ErrRunActive   = errors.New("an uninstall is already running")
)

type status int

const (
	statusScanning status = iota
	statusReady
	statusConfirm
	statusRunning
)

type scanReason int

const (
	scanStartup scanReason = iota
	scanAfterRun
	scanManual
	scanWatch
)

// ChangeNotifier reports out-of-band changes to the installed set.
type ChangeNotifier interface {
	Changes() <-chan struct{}
}

// Config wires the UI to its collaborators.
type Config struct {
	Ctx      context.Context
	Provider scanner.Provider
	Executor uninstaller.Executor
	Scan     scanner.Options
	Notifier ChangeNotifier // optional
	DryRun   bool
}

type alert struct {
	title   string
	body    string
	isError bool
	failure *uninstaller.Failed // set while the run waits on this alert
}

type model struct {
	cfg   Config
	keys  keyMap
	help  help.Model
	sp    spinner.Model
	bar   progress.Model
	start time.Time

	st      status
	snap    scanner.Snapshot
	scanErr error

	cursor       int
	scrollOffset int
	sel          Selection
	selectAll    bool

	// uninstall run
	run        uninstaller.State
	token      *uninstaller.Token
	events     <-chan uninstaller.Event
	greyed     map[string]struct{}
	notice     string
	quitOnDone bool

	alerts []alert

	// terminal size
	termW int
	termH int

	showHelp bool
}

func newModel(cfg Config) model {
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	return model{
		cfg:    cfg,
		keys:   newKeyMap(),
		help:   help.New(),
		sp:     sp,
		bar:    bar,
		start:  time.Now(),
		st:     statusScanning,
		sel:    NewSelection(),
		greyed: map[string]struct{}{},
	}
}

// Run starts the interactive UI and blocks until it exits.
func Run(cfg Config) error {
	p := tea.NewProgram(newModel(cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// messages
type scanDoneMsg struct {
	snap   scanner.Snapshot
	err    error
	reason scanReason
}

type runEventMsg struct{ ev uninstaller.Event }

type runClosedMsg struct{}

type sitesChangedMsg struct{}

func scanCmd(ctx context.Context, provider scanner.Provider, opts scanner.Options, reason scanReason) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		snap, err := scanner.Scan(ctx, provider, opts)
		if err != nil {
			log.Printf("scan failed: %v", err)
		} else {
			log.Printf("scan found %d packages totalling %s in %s",
				snap.Len(), utils.HumanizeBytes(snap.TotalSize()), time.Since(start).Round(time.Millisecond))
		}
		return scanDoneMsg{snap: snap, err: err, reason: reason}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.sp.Tick, scanCmd(m.cfg.Ctx, m.cfg.Provider, m.cfg.Scan, scanStartup), m.waitSitesChanged())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tea.WindowSizeMsg:
		m.termW, m.termH = msg.Width, msg.Height
		m.help.Width = msg.Width
		if w := msg.Width - 4; w > 10 && w < 80 {
			m.bar.Width = w
		}
		m.adjustScroll()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd
	case scanDoneMsg:
		m.applyScan(msg)
		return m, nil
	case runEventMsg:
		return m.applyRunEvent(msg.ev)
	case runClosedMsg:
		m.events = nil
		return m, nil
	case sitesChangedMsg:
		if m.st == statusReady && len(m.alerts) == 0 {
			log.Printf("site directories changed, rescanning")
			m.st = statusScanning
			return m, tea.Batch(m.sp.Tick, scanCmd(m.cfg.Ctx, m.cfg.Provider, m.cfg.Scan, scanWatch), m.waitSitesChanged())
		}
		// a run rescans on its own when it ends
		return m, m.waitSitesChanged()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.alerts) > 0 {
		// any key dismisses the top alert
		m.dismissAlert()
		return m, nil
	}

	if key.Matches(msg, m.keys.Quit) {
		if m.token != nil {
			m.cancelRun()
			m.quitOnDone = true
			return m, nil
		}
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	}

	switch m.st {
	case statusConfirm:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m.startRun()
		case key.Matches(msg, m.keys.Deny):
			m.st = statusReady
		}
		return m, nil
	case statusRunning:
		if key.Matches(msg, m.keys.Cancel) {
			m.cancelRun()
		}
		return m, nil
	case statusReady:
	default:
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.ExtendUp):
		m.moveCursor(-1, true)
	case key.Matches(msg, m.keys.ExtendDn):
		m.moveCursor(1, true)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1, false)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1, false)
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < m.snap.Len() {
			m.sel.Toggle(m.snap.At(m.cursor).Name)
		}
	case key.Matches(msg, m.keys.SelectAll):
		m.toggleSelectAll()
	case key.Matches(msg, m.keys.Uninstall):
		_ = m.requestUninstall()
	case key.Matches(msg, m.keys.Rescan):
		m.st = statusScanning
		return m, tea.Batch(m.sp.Tick, scanCmd(m.cfg.Ctx, m.cfg.Provider, m.cfg.Scan, scanManual))
	}
	return m, nil
}

// handleMouse implements click-to-toggle and drag-to-extend on the list.
func (m *model) handleMouse(msg tea.MouseMsg) {
	if m.st != statusReady || len(m.alerts) > 0 || msg.Button != tea.MouseButtonLeft {
		return
	}
	row := m.rowAt(msg.Y)
	if row < 0 {
		return
	}
	switch msg.Action {
	case tea.MouseActionPress:
		m.cursor = row
		m.sel.Toggle(m.snap.At(row).Name)
	case tea.MouseActionMotion:
		m.cursor = row
		m.sel.Add(m.snap.At(row).Name)
	}
}

func (m *model) rowAt(y int) int {
	headerLines := strings.Count(m.headerText(), "\n")
	row := y - headerLines + m.scrollOffset
	if y < headerLines || row < 0 || row >= m.snap.Len() || row >= m.scrollOffset+m.visibleHeight() {
		return -1
	}
	return row
}

func (m *model) moveCursor(delta int, extend bool) {
	next := m.cursor + delta
	if next < 0 || next >= m.snap.Len() {
		return
	}
	if extend && m.cursor < m.snap.Len() {
		m.sel.Add(m.snap.At(m.cursor).Name)
	}
	m.cursor = next
	if extend {
		m.sel.Add(m.snap.At(m.cursor).Name)
	}
	m.adjustScroll()
}

// toggleSelectAll mirrors a "Select All" checkbox: on selects every listed
// package, off clears the selection entirely.
func (m *model) toggleSelectAll() {
	m.selectAll = !m.selectAll
	if m.selectAll {
		m.sel.SelectAll(m.snap)
	} else {
		m.sel.Clear()
	}
}

// requestUninstall validates the selection and moves to the confirm prompt.
func (m *model) requestUninstall() error {
	if m.run.Running() || m.st == statusRunning {
		return ErrRunActive
	}
	if m.sel.Len() == 0 {
		m.pushAlert(alert{title: "Warning", body: "No packages selected!"})
		return ErrNoSelection
	}
	m.st = statusConfirm
	return nil
}

func (m model) startRun() (tea.Model, tea.Cmd) {
	if m.run.Running() {
		return m, nil
	}
	selected := m.sel.Packages(m.snap)
	m.token = uninstaller.NewToken()
	m.notice = ""
	m.greyed = map[string]struct{}{}
	m.st = statusRunning
	m.keys.setRunning(true)
	log.Printf("starting uninstall of %d packages (%s)", len(selected), utils.HumanizeBytes(m.sel.Size(m.snap)))
	m.events = uninstaller.Start(m.cfg.Ctx, m.cfg.Executor, selected, m.token)
	return m, tea.Batch(m.sp.Tick, m.waitRunEvent())
}

func (m *model) cancelRun() {
	if m.token == nil {
		return
	}
	m.token.Cancel()
	m.run.CancelRequested()
	m.notice = "Cancelling after the current package..."
	log.Printf("cancel requested")
}

func (m model) applyRunEvent(ev uninstaller.Event) (tea.Model, tea.Cmd) {
	m.run.Apply(ev)
	switch e := ev.(type) {
	case uninstaller.Step:
		m.greyed[strings.ToLower(e.Name)] = struct{}{}
	case uninstaller.Failed:
		f := e
		m.pushAlert(alert{title: "Error", body: fmt.Sprintf("Failed to uninstall %s", e.Name), isError: true, failure: &f})
	case uninstaller.Finished:
		m.keys.setRunning(false)
		m.token = nil
		if e.Summary.Cancelled {
			m.notice = "Uninstallation Cancelled."
		} else {
			m.notice = "Done."
			if !m.quitOnDone {
				body := "Selected packages uninstalled."
				if m.cfg.DryRun {
					body += " (dry-run; nothing was removed)"
				}
				m.pushAlert(alert{title: "Finished", body: body})
			}
		}
		if m.quitOnDone {
			return m, tea.Quit
		}
		m.st = statusScanning
		return m, tea.Batch(m.waitRunEvent(), scanCmd(m.cfg.Ctx, m.cfg.Provider, m.cfg.Scan, scanAfterRun))
	}
	return m, m.waitRunEvent()
}

// applyScan swaps in a fresh snapshot. After a run the selection and the
// status line are cleared; other rescans keep whatever is still installed.
func (m *model) applyScan(msg scanDoneMsg) {
	m.scanErr = msg.err
	m.snap = msg.snap
	m.selectAll = false
	if msg.reason == scanAfterRun {
		m.sel.Clear()
		m.run.Reset()
		m.greyed = map[string]struct{}{}
		m.notice = ""
	} else {
		m.sel.Revalidate(m.snap)
	}
	if m.cursor >= m.snap.Len() {
		m.cursor = m.snap.Len() - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
	if !m.run.Running() {
		m.st = statusReady
	}
}

func (m *model) pushAlert(a alert) { m.alerts = append(m.alerts, a) }

func (m *model) dismissAlert() {
	top := m.alerts[0]
	m.alerts = m.alerts[1:]
	if top.failure != nil {
		top.failure.Dismiss()
	}
}

func (m model) waitRunEvent() tea.Cmd {
	ch := m.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return runClosedMsg{}
		}
		return runEventMsg{ev: ev}
	}
}

func (m model) waitSitesChanged() tea.Cmd {
	if m.cfg.Notifier == nil {
		return nil
	}
	ch := m.cfg.Notifier.Changes()
	ctx := m.cfg.Ctx
	return func() tea.Msg {
		select {
		case <-ch:
			return sitesChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m model) View() string {
	if len(m.alerts) > 0 {
		return m.alertView(m.alerts[0])
	}
	switch m.st {
	case statusConfirm:
		cnt := m.sel.Len()
		size := utils.FormatSize(m.sel.Size(m.snap))
		return fmt.Sprintf("Uninstall %d package(s)?\nTotal size: %s\n\nPress y to confirm, n/esc to cancel.\n", cnt, size)
	default:
		var b strings.Builder
		b.WriteString(m.headerText())
		b.WriteString(m.renderList())
		b.WriteString(m.footerText())
		return b.String()
	}
}

func (m model) alertView(a alert) string {
	title := headerStyle.Render(a.title)
	if a.isError {
		title = errorStyle.Render(a.title)
	}
	return alertStyle.Render(title+"\n\n"+a.body) + "\nPress any key to continue.\n"
}

// Custom list rendering - no bubbles/list component
func (m *model) renderList() string {
	if m.snap.Len() == 0 {
		if m.st == statusScanning {
			return "\n"
		}
		return "No removable packages found.\n"
	}

	var b strings.Builder
	start := m.scrollOffset
	end := start + m.visibleHeight()
	if end > m.snap.Len() {
		end = m.snap.Len()
	}

	for i := start; i < end; i++ {
		pkg := m.snap.At(i)
		selected := m.sel.Has(pkg.Name)

		var prefix string
		if i == m.cursor {
			prefix = cursorStyle.Render(">") + " "
		} else {
			prefix = "  "
		}

		mark := markStyle.Render("[ ]")
		if selected {
			mark = markSelectedStyle.Render("[x]")
		}

		sizeStr := sizeColorStyle(pkg.Size).Render(fmt.Sprintf("%10s", utils.FormatSize(pkg.Size)))

		name := pkg.Name
		if _, ok := m.greyed[strings.ToLower(pkg.Name)]; ok {
			name = inProgressStyle.Render(pkg.Name)
		} else if selected {
			name = nameSelectedStyle.Render(pkg.Name)
		}
		if pkg.Version != "" {
			name += " " + markStyle.Render(pkg.Version)
		}

		b.WriteString(prefix + mark + " " + sizeStr + " | " + name + "\n")
	}
	return b.String()
}

func (m *model) visibleHeight() int {
	headerLines := strings.Count(m.headerText(), "\n")
	footerLines := strings.Count(m.footerText(), "\n")
	h := m.termH - headerLines - footerLines
	if h < 3 {
		h = 3
	}
	return h
}

func (m *model) adjustScroll() {
	visibleHeight := m.visibleHeight()

	// Scroll down if cursor is below visible area
	if m.cursor >= m.scrollOffset+visibleHeight {
		m.scrollOffset = m.cursor - visibleHeight + 1
	}

	// Scroll up if cursor is above visible area
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m *model) headerText() string {
	check := "[ ]"
	if m.selectAll {
		check = "[x]"
	}
	mode := ""
	if m.cfg.DryRun {
		mode = " [dry-run]"
	}
	switch m.st {
	case statusScanning:
		elapsed := time.Since(m.start).Round(time.Second)
		return fmt.Sprintf("%s%s %s  Scanning installed packages...  %s\n\n",
			headerStyle.Render("Python Package Uninstaller"), mode, m.sp.View(), elapsed)
	default:
		return fmt.Sprintf("%s%s  Packages: %d  Total: %s  Selected: %d (%s)  %s Select All\n\n",
			headerStyle.Render("Python Package Uninstaller"), mode, m.snap.Len(),
			utils.FormatSize(m.snap.TotalSize()), m.sel.Len(), utils.FormatSize(m.sel.Size(m.snap)), check)
	}
}

func (m *model) footerText() string {
	var b strings.Builder
	b.WriteString("\n")
	switch {
	case m.run.Running():
		line := ""
		if m.run.Current != "" {
			line = "Uninstalling: " + m.run.Current
		}
		b.WriteString(statusStyle.Render(line) + " " + m.sp.View() + "\n")
		b.WriteString(m.bar.ViewAs(m.run.Percent()) + fmt.Sprintf(" %d/%d\n", m.run.Completed, m.run.Total))
		if m.notice != "" {
			b.WriteString(statusStyle.Render(m.notice) + "\n")
		}
	case m.scanErr != nil:
		b.WriteString(errorStyle.Render("Scan failed: "+m.scanErr.Error()) + "\n")
	case m.notice != "":
		b.WriteString(statusStyle.Render(m.notice) + "\n")
	default:
		b.WriteString(uninstallStyle.Render("u: Uninstall Selected") + "\n")
	}
	b.WriteString(lipgloss.NewStyle().Faint(true).Render(m.help.View(m.keys)) + "\n")
	return b.String()
}
