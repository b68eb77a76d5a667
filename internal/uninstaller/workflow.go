package uninstaller

import (
	"context"
	"errors"
	"log"

	"py-package-man/internal/scanner"
	"py-package-man/pkg/utils"
)

// Event is a step of a run, delivered in order on the run's channel.
type Event interface{ isEvent() }

// Started opens a run.
type Started struct{ Total int }

// Step announces the package about to be removed.
type Step struct {
	Index int
	Name  string
}

// Succeeded follows a clean removal; Completed counts successes so far.
type Succeeded struct {
	Name      string
	Completed int
	Total     int
}

// Failed pauses the run until Dismiss is called.
type Failed struct {
	Name string
	Err  error
	ack  chan struct{}
}

// Dismiss lets the run move on to the next package. Safe to call more than once.
func (f Failed) Dismiss() {
	if f.ack == nil {
		return
	}
	select {
	case f.ack <- struct{}{}:
	default:
	}
}

// Finished closes a run.
type Finished struct{ Summary Summary }

func (Started) isEvent()   {}
func (Step) isEvent()      {}
func (Succeeded) isEvent() {}
func (Failed) isEvent()    {}
func (Finished) isEvent()  {}

// Summary describes the outcome of a run.
type Summary struct {
	Total     int
	Removed   []scanner.Package
	Failures  []*Failure
	Freed     int64
	Cancelled bool
}

func (s Summary) Completed() int { return len(s.Removed) }

// Start runs the batch on a fresh goroutine. The returned channel is closed
// after Finished has been delivered.
func Start(ctx context.Context, executor Executor, selected []scanner.Package, token *Token) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		Run(ctx, executor, selected, token, ch)
	}()
	return ch
}

// Run uninstalls selected in order, one at a time. A failure is reported and
// skipped without advancing the completed count. The token is checked before
// each package. events may be nil.
func Run(ctx context.Context, executor Executor, selected []scanner.Package, token *Token, events chan<- Event) Summary {
	if ctx == nil {
		ctx = context.Background()
	}
	sum := Summary{Total: len(selected)}
	emit := func(ev Event) bool {
		if events == nil {
			return true
		}
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	emit(Started{Total: sum.Total})
	for i, pkg := range selected {
		if token.Cancelled() || ctx.Err() != nil {
			log.Printf("uninstall cancelled before %s (%d/%d done)", pkg.Name, sum.Completed(), sum.Total)
			break
		}
		emit(Step{Index: i, Name: pkg.Name})
		log.Printf("uninstalling %s", pkg.Name)

		if err := executor.Uninstall(ctx, pkg.Name); err != nil {
			var f *Failure
			if !errors.As(err, &f) {
				f = &Failure{Name: pkg.Name, Err: err}
			}
			sum.Failures = append(sum.Failures, f)
			log.Printf("uninstall %s failed: %v", pkg.Name, f)
			if events != nil {
				ack := make(chan struct{}, 1)
				if emit(Failed{Name: pkg.Name, Err: f, ack: ack}) {
					select {
					case <-ack:
					case <-ctx.Done():
					}
				}
			}
			continue
		}

		sum.Removed = append(sum.Removed, pkg)
		sum.Freed += pkg.Size
		emit(Succeeded{Name: pkg.Name, Completed: sum.Completed(), Total: sum.Total})
	}

	sum.Cancelled = token.Cancelled() || ctx.Err() != nil
	log.Printf("uninstall run finished: %d/%d removed, %d failed, %s freed, cancelled=%t",
		sum.Completed(), sum.Total, len(sum.Failures), utils.HumanizeBytes(sum.Freed), sum.Cancelled)
	emit(Finished{Summary: sum})
	return sum
}
