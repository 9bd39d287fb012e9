package core

import (
	"context"

	"github.com/saturnines/repsly-export/pkg/pagination"
)

// Fetcher performs one page request and returns the decoded body.
type Fetcher interface {
	Fetch(ctx context.Context, req *pagination.Request) (interface{}, error)
}

// Observer is told about pagination progress. Implementations must be safe
// for concurrent use across endpoints.
type Observer interface {
	PageFetched(endpoint string)
	FetchFailed(endpoint string)
	RowsAppended(endpoint string, n int)
}

type noopObserver struct{}

func (noopObserver) PageFetched(string)       {}
func (noopObserver) FetchFailed(string)       {}
func (noopObserver) RowsAppended(string, int) {}
