package uninstaller_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"py-package-man/internal/scanner"
	"py-package-man/internal/uninstaller"
)

// fakeExecutor records calls and fails the names listed in fail.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	after func(name string)
}

func (f *fakeExecutor) Uninstall(_ context.Context, name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.after != nil {
		f.after(name)
	}
	if f.fail[name] {
		return &uninstaller.Failure{Name: name, Stderr: "not installed", Err: errors.New("exit status 1")}
	}
	return nil
}

func (f *fakeExecutor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func pkgs(names ...string) []scanner.Package {
	out := make([]scanner.Package, len(names))
	for i, n := range names {
		out[i] = scanner.Package{Name: n, Size: int64(i+1) * 1024}
	}
	return out
}

// drain applies every event to a State, dismissing failures as the UI would.
func drain(ch <-chan uninstaller.Event) (uninstaller.State, []uninstaller.Event, []int) {
	var st uninstaller.State
	var events []uninstaller.Event
	var progress []int
	for ev := range ch {
		st.Apply(ev)
		events = append(events, ev)
		switch e := ev.(type) {
		case uninstaller.Started:
			progress = append(progress, 0)
		case uninstaller.Succeeded:
			progress = append(progress, e.Completed)
		case uninstaller.Failed:
			e.Dismiss()
		}
		Expect(st.Completed).To(BeNumerically("<=", st.Total))
	}
	return st, events, progress
}

var _ = Describe("Run", func() {
	var (
		ctx   context.Context
		exec  *fakeExecutor
		token *uninstaller.Token
	)

	BeforeEach(func() {
		ctx = context.Background()
		exec = &fakeExecutor{fail: map[string]bool{}}
		token = uninstaller.NewToken()
	})

	Context("when every uninstall succeeds", func() {
		It("advances progress one by one and completes without failures", func() {
			st, events, progress := drain(uninstaller.Start(ctx, exec, pkgs("a", "b", "c"), token))

			Expect(exec.Calls()).To(Equal([]string{"a", "b", "c"}))
			Expect(progress).To(Equal([]int{0, 1, 2, 3}))
			Expect(st.Phase).To(Equal(uninstaller.Completed))
			Expect(st.Finished).To(BeTrue())
			Expect(st.Cancelled).To(BeFalse())
			for _, ev := range events {
				_, isFailure := ev.(uninstaller.Failed)
				Expect(isFailure).To(BeFalse())
			}

			fin, ok := events[len(events)-1].(uninstaller.Finished)
			Expect(ok).To(BeTrue())
			Expect(fin.Summary.Freed).To(BeEquivalentTo(1024 + 2048 + 3072))
		})

		It("announces each package before removing it", func() {
			_, events, _ := drain(uninstaller.Start(ctx, exec, pkgs("a", "b"), token))
			var steps []string
			for _, ev := range events {
				if s, ok := ev.(uninstaller.Step); ok {
					steps = append(steps, s.Name)
				}
			}
			Expect(steps).To(Equal([]string{"a", "b"}))
		})
	})

	Context("when the second of three fails", func() {
		It("reports it once, keeps going and does not count it", func() {
			exec.fail["b"] = true
			st, events, _ := drain(uninstaller.Start(ctx, exec, pkgs("a", "b", "c"), token))

			var failed []string
			for _, ev := range events {
				if f, ok := ev.(uninstaller.Failed); ok {
					failed = append(failed, f.Name)
					Expect(f.Err.Error()).To(ContainSubstring("b"))
				}
			}
			Expect(failed).To(Equal([]string{"b"}))
			Expect(exec.Calls()).To(Equal([]string{"a", "b", "c"}))
			Expect(st.Completed).To(Equal(2))
			Expect(st.Phase).To(Equal(uninstaller.Completed))
		})

		It("waits for the failure to be dismissed before the next package", func() {
			exec.fail["b"] = true
			ch := uninstaller.Start(ctx, exec, pkgs("a", "b", "c"), token)

			var failure uninstaller.Failed
			for ev := range ch {
				if f, ok := ev.(uninstaller.Failed); ok {
					failure = f
					break
				}
			}
			Consistently(exec.Calls, "50ms").Should(Equal([]string{"a", "b"}))

			failure.Dismiss()
			failure.Dismiss()
			for range ch {
			}
			Expect(exec.Calls()).To(Equal([]string{"a", "b", "c"}))
		})
	})

	Context("when cancelled after the first package", func() {
		It("never starts the rest and ends cancelled", func() {
			exec.after = func(name string) {
				if name == "a" {
					token.Cancel()
				}
			}
			st, _, _ := drain(uninstaller.Start(ctx, exec, pkgs("a", "b", "c"), token))

			Expect(exec.Calls()).To(Equal([]string{"a"}))
			Expect(st.Phase).To(Equal(uninstaller.Cancelled))
			Expect(st.Cancelled).To(BeTrue())
			Expect(st.Completed).To(Equal(1))
		})
	})

	Context("when the context ends while a failure is pending", func() {
		It("stops without a dismissal", func() {
			cctx, cancel := context.WithCancel(ctx)
			exec.fail["a"] = true
			events := make(chan uninstaller.Event, 8)
			done := make(chan uninstaller.Summary, 1)
			go func() { done <- uninstaller.Run(cctx, exec, pkgs("a", "b"), token, events) }()

			Eventually(func() bool {
				for {
					select {
					case ev := <-events:
						if _, ok := ev.(uninstaller.Failed); ok {
							return true
						}
					default:
						return false
					}
				}
			}).Should(BeTrue())
			cancel()

			var sum uninstaller.Summary
			Eventually(done).Should(Receive(&sum))
			Expect(sum.Cancelled).To(BeTrue())
			Expect(exec.Calls()).To(Equal([]string{"a"}))
		})
	})

	It("runs headless without an event channel", func() {
		exec.fail["b"] = true
		sum := uninstaller.Run(ctx, exec, pkgs("a", "b", "c"), token, nil)
		Expect(sum.Completed()).To(Equal(2))
		Expect(sum.Failures).To(HaveLen(1))
		Expect(sum.Failures[0].Name).To(Equal("b"))
		Expect(sum.Cancelled).To(BeFalse())
	})

	It("wraps plain executor errors as failures", func() {
		plain := errors.New("boom")
		sum := uninstaller.Run(ctx, executorFunc(func(context.Context, string) error { return plain }), pkgs("x"), token, nil)
		Expect(sum.Failures).To(HaveLen(1))
		Expect(sum.Failures[0]).To(MatchError(plain))
		Expect(sum.Failures[0].Name).To(Equal("x"))
	})
})

type executorFunc func(ctx context.Context, name string) error

func (f executorFunc) Uninstall(ctx context.Context, name string) error { return f(ctx, name) }
