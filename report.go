package segmento

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/segmento/artifact"
)

// ReportPrefix starts the download name of a segmentation report.
const ReportPrefix = "segmentation_report_"

// Report is the optional segmentation report shipped with a bundle.
type Report struct {
	// Name is the dated download name, segmentation_report_YYYYMMDD.txt.
	Name    string
	Content []byte
}

// ReportName returns the download name of a report produced at t.
func ReportName(t time.Time) string {
	return ReportPrefix + t.Format("20060102") + ".txt"
}

// Report fetches the bundle's report. It returns ErrNoReport when the bundle
// has none.
func (e *Engine) Report(ctx context.Context) (Report, error) {
	if e.closed.Load() {
		return Report{}, ErrClosed
	}
	if e.store == nil || e.bundle.Manifest.Report == nil {
		return Report{}, ErrNoReport
	}
	data, err := artifact.ReadReport(ctx, e.store, e.bundle.Manifest, e.opts.resource)
	if err != nil {
		if errors.Is(err, artifact.ErrNoReport) {
			return Report{}, ErrNoReport
		}
		return Report{}, translateError("", err)
	}
	return Report{Name: ReportName(time.Now()), Content: data}, nil
}
