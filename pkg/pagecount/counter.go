// Package pagecount computes the billable page count of an uploaded PDF.
//
// Two independent sources are consulted for every document: the structural
// count declared by the PDF page tree and a content-derived count from an
// external document-analysis service. The reconciliation policy is:
//
//  1. the content-derived count when the analysis succeeded;
//  2. otherwise the structural count;
//  3. otherwise fail with both causes.
//
// A disagreement between the two sources is reported in Result.Agreement and
// never rejected.
package pagecount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/fotcopier/printshop/pkg/metrics"
)

// Analyzer is the port to the external analysis capability. Segments returns
// the number of page-level segments it recognised in data.
type Analyzer interface {
	Segments(ctx context.Context, data []byte) (int, error)
}

// Source names which candidate became the authoritative count.
type Source string

const (
	SourceContent    Source = "content"
	SourceStructural Source = "structural"
)

// Result is the reconciled count plus both candidates for observability.
type Result struct {
	Pages          int
	Source         Source
	Structural     int
	ContentDerived int
	Agreement      bool
	StructuralErr  error
	ContentErr     error
}

// Counter reconciles the structural and content-derived counts.
type Counter struct {
	analyzer Analyzer
	timeout  time.Duration
	log      *slog.Logger
}

// NewCounter builds a Counter. A nil analyzer makes every content-derived
// count unavailable, so the structural count is used.
func NewCounter(analyzer Analyzer, timeout time.Duration, log *slog.Logger) *Counter {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Counter{analyzer: analyzer, timeout: timeout, log: log}
}

// CountPages makes exactly one call to the analyzer and never retries.
func (c *Counter) CountPages(ctx context.Context, data []byte) (Result, error) {
	var res Result

	res.Structural, res.StructuralErr = StructuralCount(data)
	res.ContentDerived, res.ContentErr = c.contentCount(ctx, data)

	switch {
	case res.ContentErr == nil:
		res.Pages, res.Source = res.ContentDerived, SourceContent
	case res.StructuralErr == nil:
		res.Pages, res.Source = res.Structural, SourceStructural
		c.log.WarnContext(ctx, "content analysis failed, using structural page count",
			"pages", res.Structural, "error", res.ContentErr)
	default:
		return res, errors.Join(res.ContentErr, res.StructuralErr)
	}

	res.Agreement = res.StructuralErr == nil && res.ContentErr == nil && res.Structural == res.ContentDerived
	if res.StructuralErr == nil && res.ContentErr == nil && !res.Agreement {
		c.log.InfoContext(ctx, "page count sources disagree",
			"structural", res.Structural, "content", res.ContentDerived)
	}
	metrics.ObservePageCount(string(res.Source), res.Agreement)
	return res, nil
}

func (c *Counter) contentCount(ctx context.Context, data []byte) (int, error) {
	if c.analyzer == nil {
		return 0, fmt.Errorf("%w: no analyzer configured", ErrAnalysisUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	n, err := c.analyzer.Segments(ctx, data)
	switch {
	case err != nil && isTimeout(ctx, err):
		metrics.ObserveAnalysis("timeout", time.Since(start))
		return 0, fmt.Errorf("%w after %s: %v", ErrAnalysisTimeout, c.timeout, err)
	case err != nil:
		metrics.ObserveAnalysis("error", time.Since(start))
		return 0, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	case n <= 0:
		metrics.ObserveAnalysis("empty", time.Since(start))
		return 0, fmt.Errorf("%w: no page segments in response", ErrAnalysisUnavailable)
	}
	metrics.ObserveAnalysis("ok", time.Since(start))
	return n, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
