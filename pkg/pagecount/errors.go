package pagecount

import "errors"

var (
	// ErrMalformedDocument: the bytes are not a readable PDF container.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrAnalysisUnavailable: the analysis service could not be reached or
	// returned no usable page segmentation.
	ErrAnalysisUnavailable = errors.New("document analysis unavailable")
	// ErrAnalysisTimeout: the analysis service did not answer in time.
	ErrAnalysisTimeout = errors.New("document analysis timed out")
)
