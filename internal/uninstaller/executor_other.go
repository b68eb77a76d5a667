//go:build !unix

package uninstaller

import "os/exec"

func detach(*exec.Cmd) {}
