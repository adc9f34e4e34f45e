package repository

import "context"

// GTFSFetcher downloads and extracts zipped GTFS resources to a working
// tree (C9).
type GTFSFetcher interface {
	// DownloadList downloads each URL to a temp zip, extracts it to
	// <base>/dataset_<i+1>/ and returns the extracted directories. A
	// target directory that already exists and is non-empty is skipped.
	DownloadList(ctx context.Context, urls []string) ([]string, error)

	// Download resolves one dataset from a list of candidate URLs,
	// falling back to an operator prompt on ambiguity or failure. It
	// returns "" when the operator chooses to skip the dataset.
	Download(ctx context.Context, datasetID string, candidates []string) (string, error)

	// ClearBaseDir wipes the working tree and recreates the base
	// directory empty.
	ClearBaseDir() error
}

// OperatorPrompt asks a human operator to resolve a GTFS dataset that
// could not be downloaded automatically, serialized process-wide so
// prompts never interleave.
type OperatorPrompt interface {
	// Resolve returns a direct URL, or "" (with ok=false) when the
	// operator answers "skip".
	Resolve(ctx context.Context, datasetID string, reason string) (url string, ok bool)
}
