package pipeline

import (
	"github.com/alanbriolat/video-fetcher/internal/lpc"
	"github.com/alanbriolat/video-fetcher/stream"
)

// SelectionRequest carries the offered video variants to a Presenter. It must be answered exactly once, with
// Respond(id) or Cancel(), from any goroutine.
type SelectionRequest = lpc.Command[[]stream.Variant, stream.ID]

// A Presenter shows the variants of a SelectionRequest to whoever chooses between them. It may answer before
// returning or later from another goroutine; the pipeline blocks until it does.
type Presenter func(req *SelectionRequest)

func newSelectionRequest(variants []stream.Variant) *SelectionRequest {
	return (*SelectionRequest).New(nil, variants)
}

// AutoSelect chooses the first offered variant, which providers list in descending quality.
func AutoSelect(req *SelectionRequest) {
	if variants := req.Arg(); len(variants) > 0 {
		_ = req.Respond(variants[0].ID)
	} else {
		_ = req.Cancel()
	}
}

// SelectID always chooses id, whether or not it is on offer.
func SelectID(id stream.ID) Presenter {
	return func(req *SelectionRequest) {
		_ = req.Respond(id)
	}
}

// CancelSelection declines every request.
func CancelSelection(req *SelectionRequest) {
	_ = req.Cancel()
}
