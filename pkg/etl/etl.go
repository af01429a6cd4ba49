// Package etl wires the SolarNetwork extractor to the irradianceHours jump
// scan and the CSV report.
package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/taybkho/CI-CD-Energy/pkg/log"
	"github.com/taybkho/CI-CD-Energy/pkg/report"
	"github.com/taybkho/CI-CD-Energy/pkg/scan"
	"github.com/taybkho/CI-CD-Energy/pkg/solarnet"
	"github.com/taybkho/CI-CD-Energy/pkg/types"
)

// ETL runs one extract-then-scan pass.
type ETL struct {
	extractor   solarnet.Extractor
	query       solarnet.Query
	opts        scan.Options
	metricsPath string
	metrics     *metrics

	configErr error
}

// New returns an ETL for the given query.
func New(extractor solarnet.Extractor, query solarnet.Query, opts scan.Options) *ETL {
	return &ETL{
		extractor: extractor,
		query:     query,
		opts:      opts,
		metrics:   newMetrics(),
	}
}

// Configured registers the query flags and returns an ETL that is filled in
// once lflag.Configure runs. Call Validate afterwards to find out whether
// the flags were usable.
func Configured(extractor solarnet.Extractor) *ETL {
	e := New(extractor, solarnet.Query{}, scan.Options{})

	node := lflag.RequiredString("node", "Node ID (non-empty string)")
	sourceIDs := lflag.RequiredString("sourceids", "Comma-separated list of source IDs")
	startDate := lflag.RequiredString("startdate", "Start date in format YYYY-MM-DDTHH:MM:SS")
	endDate := lflag.RequiredString("enddate", "End date in format YYYY-MM-DDTHH:MM:SS")
	aggregate := lflag.RequiredString("aggregate", "Aggregation method (None to disable aggregation)")
	maxOutput := lflag.RequiredString("maxoutput", "Maximum output limit")
	skipInvalidDates := lflag.Bool("skip-invalid-dates", false, "Warn and continue instead of aborting when a last meter date is not YYYY-MM-DD")
	metricsPath := lflag.String("metrics-textfile", "", "Write run metrics in Prometheus text format to this file")

	lflag.Do(func() {
		e.query.NodeID = *node
		e.query.SourceIDs = *sourceIDs
		e.query.Aggregation = *aggregate
		e.query.Max = *maxOutput
		e.opts.SkipInvalidDates = *skipInvalidDates
		e.metricsPath = *metricsPath

		var errs []error
		if *node == "" {
			errs = append(errs, errors.New("--node: must not be empty"))
		}
		start, err := types.ParseISOTime(*startDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("--startdate: %w", err))
		}
		end, err := types.ParseISOTime(*endDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("--enddate: %w", err))
		}
		e.query.StartDate = start
		e.query.EndDate = end
		e.configErr = errors.Join(errs...)
	})

	return e
}

// Validate reports flag values that Configured could not use.
func (e *ETL) Validate() error {
	return e.configErr
}

// Query returns the query the ETL will send.
func (e *ETL) Query() solarnet.Query {
	return e.query
}

// Run extracts the datum rows and writes the jump report to out. The header
// is written once extraction succeeds, even if no rows came back.
// Extraction errors and fail-fast date errors are returned as-is.
func (e *ETL) Run(ctx context.Context, out io.Writer) (report.Summary, error) {
	summary, err := e.run(ctx, out)
	if err == nil {
		e.metrics.lastSuccess.SetToCurrentTime()
	}
	if e.metricsPath != "" {
		if merr := e.metrics.writeTextfile(e.metricsPath); merr != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to write metrics textfile", slog.String("path", e.metricsPath), slog.Any("error", merr))
		}
	}
	return summary, err
}

func (e *ETL) run(ctx context.Context, out io.Writer) (report.Summary, error) {
	query := e.query.Encode()
	log.Ctx(ctx).DebugContext(ctx, "extracting datum", slog.String("query", query))

	start := time.Now()
	resp, err := e.extractor.Extract(ctx, query)
	e.metrics.observeExtract(err, time.Since(start))
	if err != nil {
		return report.Summary{}, fmt.Errorf("extract: %w", err)
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"extracted datum",
		slog.Int("records", len(resp.Results)),
		slog.Int64("totalResults", resp.TotalResults),
	)

	w := report.NewWriter(out)
	summary, err := w.WriteAll(scan.Scan(e.countRecords(slices.Values(resp.Results)), e.opts))
	e.metrics.jumps.Add(float64(summary.Jumps))
	e.metrics.warnings.Add(float64(summary.Warnings))
	if err != nil {
		return summary, fmt.Errorf("scan: %w", err)
	}

	log.Ctx(ctx).InfoContext(
		ctx,
		"scan complete",
		slog.Int("jumps", summary.Jumps),
		slog.Int("warnings", summary.Warnings),
	)
	return summary, nil
}

func (e *ETL) countRecords(seq iter.Seq[types.Record]) iter.Seq[types.Record] {
	return func(yield func(types.Record) bool) {
		for r := range seq {
			e.metrics.recordsScanned.Inc()
			if !yield(r) {
				return
			}
		}
	}
}
