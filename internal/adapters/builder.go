package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgsmith/internal/core"
	"pkgsmith/internal/ports"
	"pkgsmith/internal/shared"
	"pkgsmith/internal/types"
)

// PackageBuilder drives patch application and the per-build-system
// command sequences. All writes land under the build directory and the
// install prefix; system-wide locations are never touched.
type PackageBuilder struct {
	Runner     ports.RunnerPort
	Downloader ports.DownloadPort
}

func NewPackageBuilder(runner ports.RunnerPort, downloader ports.DownloadPort) PackageBuilder {
	return PackageBuilder{Runner: runner, Downloader: downloader}
}

// Patch applies the entry's patches in manifest order as unified diffs.
// Remote patches are downloaded first. The first failing patch aborts;
// earlier applications are not rolled back.
func (b PackageBuilder) Patch(ctx context.Context, sourceDir string, entry types.VersionEntry) error {
	for _, patch := range entry.Patches {
		path := patch
		if strings.HasPrefix(patch, "http://") || strings.HasPrefix(patch, "https://") {
			dest := filepath.Join(sourceDir, ".pkgsmith-patch-"+filepath.Base(patch))
			if err := b.Downloader.Download(ctx, patch, dest); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg(fmt.Sprintf("patch failed: cannot download %s", patch)).
					WithCause(err)
			}
			defer os.Remove(dest)
			path = dest
		}
		if _, err := os.Stat(path); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("patch failed: %s not found", patch)).
				WithCause(err)
		}
		output, err := b.Runner.Run(ctx, ports.Command{
			Name: "patch",
			Args: []string{"-p1", "-i", path},
			Dir:  sourceDir,
		})
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("patch failed: %s", patch)).
				WithCause(shared.CommandError(output, err))
		}
		log.Ctx(ctx).Debug().Str("patch", patch).Msg("patch applied")
	}
	return nil
}

// Build runs the configure and compile steps for the entry's build
// system with the dependency-derived environment.
func (b PackageBuilder) Build(ctx context.Context, req ports.BuildRequest) error {
	if err := os.MkdirAll(req.BuildDir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create build directory").
			WithCause(err)
	}
	env := core.BuildEnv(req.Entry, req.Prefix, req.DepPrefixes, os.Environ())

	switch req.Entry.BuildSystem {
	case types.BuildSystemAutotools:
		return b.buildAutotools(ctx, req, env)
	case types.BuildSystemCMake:
		return b.buildCMake(ctx, req, env)
	case types.BuildSystemMeson:
		return b.buildMeson(ctx, req, env)
	case types.BuildSystemMake:
		return b.buildMake(ctx, req, env)
	case types.BuildSystemCargo:
		return b.buildCargo(ctx, req, env)
	case types.BuildSystemCustom:
		return runShellCommands(ctx, req.Entry.BuildCommands, req.SourceDir, env, "build failed")
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown build system: %q", req.Entry.BuildSystem))
	}
}

// Install runs the install step. Manifest install_commands, when set,
// replace the build system's own install sequence.
func (b PackageBuilder) Install(ctx context.Context, req ports.BuildRequest) error {
	env := core.BuildEnv(req.Entry, req.Prefix, req.DepPrefixes, os.Environ())
	if len(req.Entry.InstallCommands) > 0 {
		return runShellCommands(ctx, req.Entry.InstallCommands, req.SourceDir, env, "install failed")
	}

	switch req.Entry.BuildSystem {
	case types.BuildSystemAutotools:
		return b.step(ctx, "install failed", "make install", ports.Command{
			Name: "make", Args: []string{"install"}, Dir: req.SourceDir, Env: env,
		})
	case types.BuildSystemCMake:
		return b.step(ctx, "install failed", "cmake --install", ports.Command{
			Name: "cmake", Args: []string{"--install", req.BuildDir}, Env: env,
		})
	case types.BuildSystemMeson:
		return b.step(ctx, "install failed", "meson install", ports.Command{
			Name: "meson", Args: []string{"install", "-C", req.BuildDir}, Env: env,
		})
	case types.BuildSystemMake:
		return b.step(ctx, "install failed", "make install", ports.Command{
			Name: "make", Args: []string{"install", "PREFIX=" + req.Prefix}, Dir: req.SourceDir, Env: env,
		})
	case types.BuildSystemCargo:
		return b.step(ctx, "install failed", "cargo install", ports.Command{
			Name: "cargo",
			Args: []string{"install", "--path", ".", "--root", req.Prefix},
			Dir:  req.SourceDir, Env: env,
		})
	case types.BuildSystemCustom:
		// Custom builds install through build_commands or
		// install_commands; nothing left to do here.
		return nil
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown build system: %q", req.Entry.BuildSystem))
	}
}

func (b PackageBuilder) buildAutotools(ctx context.Context, req ports.BuildRequest, env []string) error {
	configure := filepath.Join(req.SourceDir, "configure")
	if _, err := os.Stat(configure); err != nil {
		if hasAny(req.SourceDir, "configure.ac", "configure.in") {
			if err := b.step(ctx, "build failed", "autoreconf", ports.Command{
				Name: "autoreconf", Args: []string{"-fiv"}, Dir: req.SourceDir, Env: env,
			}); err != nil {
				return err
			}
		}
	}
	args := append([]string{"--prefix=" + req.Prefix}, req.Entry.ConfigureArgs...)
	if err := b.step(ctx, "build failed", "configure", ports.Command{
		Name: "./configure", Args: args, Dir: req.SourceDir, Env: env,
	}); err != nil {
		return err
	}
	return b.step(ctx, "build failed", "make", ports.Command{
		Name: "make", Args: req.Entry.MakeArgs, Dir: req.SourceDir, Env: env,
	})
}

func (b PackageBuilder) buildCMake(ctx context.Context, req ports.BuildRequest, env []string) error {
	args := []string{
		"-S", req.SourceDir,
		"-B", req.BuildDir,
		"-DCMAKE_INSTALL_PREFIX=" + req.Prefix,
	}
	args = append(args, req.Entry.CMakeArgs...)
	if err := b.step(ctx, "build failed", "cmake configure", ports.Command{
		Name: "cmake", Args: args, Env: env,
	}); err != nil {
		return err
	}
	return b.step(ctx, "build failed", "cmake --build", ports.Command{
		Name: "cmake", Args: []string{"--build", req.BuildDir}, Env: env,
	})
}

func (b PackageBuilder) buildMeson(ctx context.Context, req ports.BuildRequest, env []string) error {
	args := []string{"setup", req.BuildDir, req.SourceDir, "--prefix=" + req.Prefix}
	args = append(args, req.Entry.MesonArgs...)
	if err := b.step(ctx, "build failed", "meson setup", ports.Command{
		Name: "meson", Args: args, Env: env,
	}); err != nil {
		return err
	}
	return b.step(ctx, "build failed", "meson compile", ports.Command{
		Name: "meson", Args: []string{"compile", "-C", req.BuildDir}, Env: env,
	})
}

func (b PackageBuilder) buildMake(ctx context.Context, req ports.BuildRequest, env []string) error {
	return b.step(ctx, "build failed", "make", ports.Command{
		Name: "make", Args: req.Entry.MakeArgs, Dir: req.SourceDir, Env: env,
	})
}

func (b PackageBuilder) buildCargo(ctx context.Context, req ports.BuildRequest, env []string) error {
	return b.step(ctx, "build failed", "cargo build", ports.Command{
		Name: "cargo", Args: []string{"build", "--release"}, Dir: req.SourceDir, Env: env,
	})
}

// step runs one external build step, turning a nonzero exit into an
// error that names the step and carries the output tail.
func (b PackageBuilder) step(ctx context.Context, prefix string, name string, cmd ports.Command) error {
	log.Ctx(ctx).Debug().Str("step", name).Msg("running build step")
	output, err := b.Runner.Run(ctx, cmd)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("%s: step %s", prefix, name)).
			WithCause(shared.CommandError(output, err))
	}
	return nil
}

func hasAny(dir string, names ...string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

var _ ports.BuilderPort = PackageBuilder{}
