package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgsmith/internal/ports"
	"pkgsmith/internal/shared"
	"pkgsmith/internal/types"
)

// transport is one download mechanism in the fetcher's ordered fallback
// chain. Each reports success or failure uniformly; the chain tries each
// in turn until one produces a non-empty file.
type transport struct {
	name     string
	download func(ctx context.Context, url string, dest string) error
}

// SourceFetcher materializes source trees for git, archive and local
// source specs under a scratch directory.
type SourceFetcher struct {
	Runner     ports.RunnerPort
	transports []transport
}

func NewSourceFetcher(runner ports.RunnerPort) *SourceFetcher {
	f := &SourceFetcher{Runner: runner}
	f.transports = []transport{
		{name: "curl", download: f.downloadCurl},
		{name: "wget", download: f.downloadWget},
		{name: "http", download: f.downloadHTTP},
	}
	return f
}

func (f *SourceFetcher) Fetch(ctx context.Context, spec types.SourceSpec, destDir string, force bool) (string, error) {
	switch spec.Type {
	case types.SourceTypeGit:
		return f.fetchGit(ctx, spec, destDir, force)
	case types.SourceTypeTarball, types.SourceTypeZip:
		return f.fetchArchive(ctx, spec, destDir, force)
	case types.SourceTypeLocal:
		return f.fetchLocal(ctx, spec, destDir)
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported source type: %q", spec.Type))
	}
}

// reuseExisting reports whether a previously fetched tree at destDir can
// be reused. Sources are re-fetched only on force.
func reuseExisting(ctx context.Context, destDir string, force bool) bool {
	if force {
		return false
	}
	entries, err := os.ReadDir(destDir)
	if err != nil || len(entries) == 0 {
		return false
	}
	log.Ctx(ctx).Debug().Str("dir", destDir).Msg("reusing existing source tree")
	return true
}

// Download fetches url to dest through the transport chain. A transport
// that leaves an empty file counts as a failure and the next one is
// tried; when every transport is exhausted the last error is reported.
func (f *SourceFetcher) Download(ctx context.Context, url string, dest string) error {
	var attempts []string
	for _, t := range f.transports {
		if err := t.download(ctx, url, dest); err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", t.name, err))
			continue
		}
		info, err := os.Stat(dest)
		if err != nil || info.Size() == 0 {
			attempts = append(attempts, fmt.Sprintf("%s: downloaded file is empty", t.name))
			os.Remove(dest)
			continue
		}
		log.Ctx(ctx).Debug().
			Str("transport", t.name).
			Str("url", url).
			Int64("bytes", info.Size()).
			Msg("download completed")
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("download failed: %s", url)).
		WithCause(fmt.Errorf("all transports exhausted: %s", strings.Join(attempts, "; ")))
}

func (f *SourceFetcher) downloadCurl(ctx context.Context, url string, dest string) error {
	if !f.Runner.LookPath("curl") {
		return fmt.Errorf("curl not available")
	}
	output, err := f.Runner.Run(ctx, ports.Command{
		Name: "curl",
		Args: []string{"-fsSL", "--retry", "0", "-o", dest, url},
	})
	if err != nil {
		return shared.CommandError(output, err)
	}
	return nil
}

func (f *SourceFetcher) downloadWget(ctx context.Context, url string, dest string) error {
	if !f.Runner.LookPath("wget") {
		return fmt.Errorf("wget not available")
	}
	output, err := f.Runner.Run(ctx, ports.Command{
		Name: "wget",
		Args: []string{"-q", "-O", dest, url},
	})
	if err != nil {
		return shared.CommandError(output, err)
	}
	return nil
}

func (f *SourceFetcher) downloadHTTP(ctx context.Context, url string, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d url=%s", resp.StatusCode, url)
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return nil
}

var _ ports.FetcherPort = (*SourceFetcher)(nil)
var _ ports.DownloadPort = (*SourceFetcher)(nil)
