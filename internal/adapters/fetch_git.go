package adapters

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"pkgsmith/internal/ports"
	"pkgsmith/internal/shared"
	"pkgsmith/internal/types"
)

const gitFetchAttempts = 3

// permanentGitFailures are clone/checkout outputs that no amount of
// retrying will fix: bad refs, missing repositories, rejected auth.
var permanentGitFailures = []string{
	"not found",
	"does not exist",
	"authentication failed",
	"permission denied",
	"invalid username or password",
	"pathspec",
	"unknown revision",
	"couldn't find remote ref",
}

func (f *SourceFetcher) fetchGit(ctx context.Context, spec types.SourceSpec, destDir string, force bool) (string, error) {
	if !f.Runner.LookPath("git") {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("git is required for git sources")
	}
	if reuseExisting(ctx, destDir, force) {
		return destDir, nil
	}
	if err := os.RemoveAll(destDir); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to clear source directory").
			WithCause(err)
	}

	clone := func() error {
		if err := os.RemoveAll(destDir); err != nil {
			return backoff.Permanent(err)
		}
		args := []string{"clone"}
		// A pinned commit may predate the shallow head, so only
		// branch/tag clones are shallow.
		if spec.Commit == "" {
			args = append(args, "--depth", "1")
			if ref := spec.Ref(); ref != "" {
				args = append(args, "--branch", ref)
			}
		}
		args = append(args, spec.URL, destDir)
		output, err := f.Runner.Run(ctx, ports.Command{Name: "git", Args: args})
		if err != nil {
			return classifyGitError(output, err)
		}
		if spec.Commit != "" {
			output, err := f.Runner.Run(ctx, ports.Command{
				Name: "git",
				Args: []string{"checkout", spec.Commit},
				Dir:  destDir,
			})
			if err != nil {
				return classifyGitError(output, err)
			}
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(time.Second),
		), gitFetchAttempts-1),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		log.Ctx(ctx).Warn().
			Err(err).
			Dur("backoff", wait).
			Str("url", spec.URL).
			Msg("git fetch failed, retrying")
	}
	if err := backoff.RetryNotify(clone, policy, notify); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("download failed: git clone %s", spec.URL)).
			WithCause(err)
	}
	return destDir, nil
}

// classifyGitError wraps a git failure, marking non-transient ones
// permanent so the retry loop bails out immediately.
func classifyGitError(output []byte, err error) error {
	wrapped := shared.CommandError(output, err)
	lowered := strings.ToLower(string(output))
	for _, marker := range permanentGitFailures {
		if strings.Contains(lowered, marker) {
			return backoff.Permanent(wrapped)
		}
	}
	return wrapped
}
