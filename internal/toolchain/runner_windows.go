//go:build windows

package toolchain

import (
	"os/exec"
	"syscall"
)

// prepare hands cmd.exe lines through unescaped; the default argument
// quoting turns embedded quotes into \" which cmd.exe does not understand.
func prepare(c *exec.Cmd, cmd Command) {
	if cmd.Name == "cmd" && len(cmd.Args) == 2 && cmd.Args[0] == "/c" {
		c.SysProcAttr = &syscall.SysProcAttr{CmdLine: `cmd /s /c "` + cmd.Args[1] + `"`}
	}
}
