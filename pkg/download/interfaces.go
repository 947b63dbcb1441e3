package download

import "context"

// Fetcher retrieves a file published under the repository base URL.
type Fetcher interface {
	// Fetch downloads baseURL+relativeName into destDir/relativeName, overwriting any
	// previous copy, and returns the local path.
	Fetch(ctx context.Context, relativeName, destDir string) (string, error)
}

// ProgressFunc observes a running download. total is -1 when the server did not announce
// a length. Observers cannot influence the transfer.
type ProgressFunc func(name string, received, total int64)
