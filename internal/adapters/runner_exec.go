package adapters

import (
	"context"
	"os/exec"

	"pkgsmith/internal/ports"
)

// ExecRunner runs external processes through os/exec. Stdin stays nil so
// every child reads from the null device; a cancelled context kills the
// running process.
type ExecRunner struct{}

func NewExecRunner() ExecRunner {
	return ExecRunner{}
}

func (r ExecRunner) Run(ctx context.Context, cmd ports.Command) ([]byte, error) {
	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	if cmd.Env != nil {
		proc.Env = cmd.Env
	}
	return proc.CombinedOutput()
}

func (r ExecRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

var _ ports.RunnerPort = ExecRunner{}
