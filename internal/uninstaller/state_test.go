package uninstaller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"py-package-man/internal/scanner"
)

func TestState_Lifecycle(t *testing.T) {
	var st State
	require.Equal(t, Idle, st.Phase)
	require.False(t, st.Running())

	st.Apply(Started{Total: 2})
	require.True(t, st.Running())
	require.Equal(t, 0.0, st.Percent())

	st.Apply(Step{Index: 0, Name: "a"})
	require.Equal(t, "a", st.Current)
	st.Apply(Succeeded{Name: "a", Completed: 1, Total: 2})
	require.Equal(t, 0.5, st.Percent())

	st.Apply(Finished{Summary: Summary{Total: 2, Removed: []scanner.Package{{Name: "a"}}}})
	require.Equal(t, Completed, st.Phase)
	require.Equal(t, "", st.Current)
	require.True(t, st.Finished)
	require.Equal(t, 1, st.Completed)

	st.Reset()
	require.Equal(t, State{}, st)
}

func TestState_CancelNeverReverts(t *testing.T) {
	var st State
	st.CancelRequested()
	require.False(t, st.Cancelled, "nothing to cancel while idle")

	st.Apply(Started{Total: 3})
	st.CancelRequested()
	require.True(t, st.Cancelled)
	st.Apply(Succeeded{Completed: 1, Total: 3})
	require.True(t, st.Cancelled)

	st.Apply(Finished{Summary: Summary{Total: 3, Removed: []scanner.Package{{Name: "a"}}}})
	require.Equal(t, Cancelled, st.Phase)
	require.True(t, st.Cancelled)
}

func TestState_CompletedNeverExceedsTotal(t *testing.T) {
	var st State
	st.Apply(Started{Total: 1})
	st.Apply(Succeeded{Completed: 5, Total: 1})
	require.Equal(t, 1, st.Completed)
}

func TestPhase_String(t *testing.T) {
	require.Equal(t, "idle", Idle.String())
	require.Equal(t, "running", Running.String())
	require.Equal(t, "completed", Completed.String())
	require.Equal(t, "cancelled", Cancelled.String())
}

func TestToken(t *testing.T) {
	var nilToken *Token
	require.False(t, nilToken.Cancelled())
	nilToken.Cancel()

	tok := NewToken()
	require.False(t, tok.Cancelled())
	tok.Cancel()
	require.True(t, tok.Cancelled())
}
