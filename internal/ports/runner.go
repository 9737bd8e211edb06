package ports

import "context"

// Command describes one external process invocation. Stdin is always
// closed; no child process may ever block waiting on interactive input.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// RunnerPort executes external processes synchronously. Run returns the
// combined output and a non-nil error on nonzero exit; cancelling the
// context terminates the running process.
type RunnerPort interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)

	// LookPath reports whether a tool is available on PATH.
	LookPath(name string) bool
}
