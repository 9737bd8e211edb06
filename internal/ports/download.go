package ports

import "context"

// DownloadPort fetches a single remote file, used for archives and
// remote patch files. Implementations try an ordered chain of transport
// mechanisms until one produces a non-empty file.
type DownloadPort interface {
	Download(ctx context.Context, url string, dest string) error
}
