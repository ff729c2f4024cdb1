package ipc

import (
	"fmt"
	"os"
	"syscall"
)

// WriteTestModeFile writes the two-line (temperature, gamma) parameter file
// a running instance's SIGUSR1 handler expects at a well-known path keyed
// by programName and the target pid.
func WriteTestModeFile(programName string, pid int, temperature, gamma string) error {
	path := fmt.Sprintf("/tmp/%s-test-%d.tmp", programName, pid)
	content := temperature + "\n" + gamma + "\n"
	return os.WriteFile(path, []byte(content), 0o644)
}

// SignalTestMode delivers SIGUSR1 to pid, telling it to read its test-mode
// parameter file.
func SignalTestMode(pid int) error {
	return syscall.Kill(pid, syscall.SIGUSR1)
}
