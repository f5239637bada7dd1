package summarizenews

import (
	"context"

	buildrequest "grokipedia-x/internal/workers/news/build-request"
	extractresult "grokipedia-x/internal/workers/news/extract-result"
	fetchpayload "grokipedia-x/internal/workers/news/fetch-payload"
	persistsummary "grokipedia-x/internal/workers/news/persist-summary"
	streamcompletion "grokipedia-x/internal/workers/news/stream-completion"
)

type PayloadFetcher interface {
	Execute(ctx context.Context, input *fetchpayload.Input) (*fetchpayload.Output, error)
}

type RequestBuilder interface {
	Execute(ctx context.Context, input *buildrequest.Input) (*buildrequest.Output, error)
}

type Completer interface {
	Execute(ctx context.Context, input *streamcompletion.Input) (*streamcompletion.Output, error)
}

type Extractor interface {
	Execute(ctx context.Context, input *extractresult.Input) (*extractresult.Output, error)
}

type Persister interface {
	Execute(ctx context.Context, input *persistsummary.Input) (*persistsummary.Output, error)
}

// Stages are the pipeline steps in run order.
type Stages struct {
	Fetch    PayloadFetcher
	Build    RequestBuilder
	Complete Completer
	Extract  Extractor
	Persist  Persister
}

// Progress receives stage results as they become available. Interactive
// front ends use it to echo the run.
type Progress interface {
	PayloadFetched(out *fetchpayload.Output)
	SummaryReceived(out *streamcompletion.Output)
	SummaryPersisted(out *persistsummary.Output)
}

type noProgress struct{}

func (noProgress) PayloadFetched(*fetchpayload.Output) {}
func (noProgress) SummaryReceived(*streamcompletion.Output) {}
func (noProgress) SummaryPersisted(*persistsummary.Output) {}
