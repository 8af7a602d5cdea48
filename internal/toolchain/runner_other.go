//go:build !windows

package toolchain

import "os/exec"

func prepare(*exec.Cmd, Command) {}
