package service

import (
	"bytes"
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
)

// SetNiceness accepts a process niceness from -20 to 19
//
// the lower the niceness score, the more CPU time the process is granted
func SetNiceness(pid int, niceness int) error {

	cmd := exec.Command("renice", "-n", strconv.Itoa(niceness), "-p", strconv.Itoa(pid))

	var out bytes.Buffer
	cmd.Stdin = nil
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "failed to set process niceness: %s", bytes.TrimSpace(out.Bytes()))
	}

	return nil
}
