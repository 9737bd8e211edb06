package adapters

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"pkgsmith/internal/shared"
)

// runShellCommands executes manifest command strings in order through an
// embedded POSIX shell interpreter, cwd pinned to dir and stdin empty.
// The first nonzero exit aborts with the failing command and its output
// tail.
func runShellCommands(ctx context.Context, commands []string, dir string, env []string, errPrefix string) error {
	parser := syntax.NewParser()
	for _, command := range commands {
		file, err := parser.Parse(strings.NewReader(command), "build_commands")
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: cannot parse command %q", errPrefix, command)).
				WithCause(err)
		}

		var output bytes.Buffer
		runner, err := interp.New(
			interp.Dir(dir),
			interp.Env(expand.ListEnviron(env...)),
			interp.StdIO(strings.NewReader(""), &output, &output),
		)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("%s: cannot start shell interpreter", errPrefix)).
				WithCause(err)
		}

		log.Ctx(ctx).Debug().Str("command", command).Msg("running shell command")
		if err := runner.Run(ctx, file); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("%s: command %q", errPrefix, command)).
				WithCause(shared.CommandError(output.Bytes(), err))
		}
	}
	return nil
}
