package uninstaller

// Phase of the uninstall state machine.
type Phase int

const (
	Idle Phase = iota
	Running
	Completed
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// State is what the UI renders about the active run. It only changes through
// Apply and CancelRequested, both called on the UI loop.
type State struct {
	Phase     Phase
	Current   string
	Completed int
	Total     int
	Cancelled bool
	Finished  bool
}

// Apply folds one event into the state.
func (s *State) Apply(ev Event) {
	switch e := ev.(type) {
	case Started:
		*s = State{Phase: Running, Total: e.Total}
	case Step:
		s.Current = e.Name
	case Succeeded:
		s.Completed = e.Completed
		if s.Completed > s.Total {
			s.Completed = s.Total
		}
	case Finished:
		s.Current = ""
		s.Finished = true
		s.Completed = e.Summary.Completed()
		if s.Cancelled || e.Summary.Cancelled {
			s.Cancelled = true
			s.Phase = Cancelled
		} else {
			s.Phase = Completed
		}
	}
}

// CancelRequested records the user's cancel; it never reverts within a run.
func (s *State) CancelRequested() {
	if s.Phase == Running {
		s.Cancelled = true
	}
}

// Reset returns to Idle after the post-run rescan.
func (s *State) Reset() { *s = State{} }

// Running reports whether a run is in flight.
func (s State) Running() bool { return s.Phase == Running }

// Percent is the progress bar value in [0,1].
func (s State) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}
