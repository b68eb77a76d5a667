//go:build unix

package uninstaller

import (
	"os/exec"
	"syscall"
)

// detach moves pip into its own process group so a terminal Ctrl-C reaches
// only us, not the uninstall in flight.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
