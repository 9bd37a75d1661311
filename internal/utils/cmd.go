package utils

import (
	"bytes"
	"context"
	"os/exec"
)

func ExecWith(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd
}

// CmdCombinedOutput runs cmd and returns stdout and stderr interleaved. The
// output is returned even when the command fails.
func CmdCombinedOutput(cmd *exec.Cmd) ([]byte, error) {
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// RunShell runs command through sh -c.
func RunShell(ctx context.Context, command string) ([]byte, error) {
	return CmdCombinedOutput(ExecWith(ctx, "sh", "-c", command))
}
