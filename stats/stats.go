// Package stats aggregates per-round-trip latency samples collected by the
// increment client and renders a diagnostic report. Timing is not part of
// the protocol contract; this exists so the demos have something concrete to
// show about interleaving and load.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/codahale/hdrhistogram"
	mstats "github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Recorder collects latency samples. It is used from a single goroutine (the
// client records one sample per round trip, sequentially).
type Recorder struct {
	samplesMs []float64
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record adds one round-trip latency sample.
//
// Parameters:
//   - d: The measured round-trip duration
func (r *Recorder) Record(d time.Duration) {
	r.samplesMs = append(r.samplesMs, float64(d)/float64(time.Millisecond))
}

// Count returns the number of recorded samples.
func (r *Recorder) Count() int {
	return len(r.samplesMs)
}

// Report is the summary printed by Print.
type Report struct {
	RoundTrips int
	MeanMs     float64
	MedianMs   float64
	MinMs      float64
	MaxMs      float64
}

// Summarize computes the latency summary over all recorded samples.
//
// Returns:
//   - The Report, or an error when no samples have been recorded
func (r *Recorder) Summarize() (Report, error) {
	if len(r.samplesMs) == 0 {
		return Report{}, errors.New("no samples recorded")
	}

	mean, err := mstats.Mean(r.samplesMs)
	if err != nil {
		return Report{}, errors.Wrapf(err, "Failed to compute mean")
	}
	median, err := mstats.Median(r.samplesMs)
	if err != nil {
		return Report{}, errors.Wrapf(err, "Failed to compute median")
	}
	min, err := mstats.Min(r.samplesMs)
	if err != nil {
		return Report{}, errors.Wrapf(err, "Failed to compute min")
	}
	max, err := mstats.Max(r.samplesMs)
	if err != nil {
		return Report{}, errors.Wrapf(err, "Failed to compute max")
	}

	return Report{
		RoundTrips: len(r.samplesMs),
		MeanMs:     mean,
		MedianMs:   median,
		MinMs:      min,
		MaxMs:      max,
	}, nil
}

// Print writes the latency summary to out as indented JSON.
//
// Parameters:
//   - out: Destination writer
//
// Returns:
//   - An error if no samples exist or marshalling fails
func (r *Recorder) Print(out io.Writer) error {
	report, err := r.Summarize()
	if err != nil {
		return err
	}

	marshalled, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal latency report")
	}

	fmt.Fprintln(out, string(marshalled))
	return nil
}

// PrintHistogram writes the latency distribution to out, one histogram bar
// per line. Samples are recorded at microsecond resolution.
//
// Parameters:
//   - out: Destination writer
//
// Returns:
//   - An error if no samples exist
func (r *Recorder) PrintHistogram(out io.Writer) error {
	if len(r.samplesMs) == 0 {
		return errors.New("no samples recorded")
	}

	// 1us to 60s covers everything a localhost demo or a slow WAN produces.
	hist := hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)
	for _, ms := range r.samplesMs {
		us := int64(ms * 1000)
		if us < 1 {
			us = 1
		}
		if err := hist.RecordValue(us); err != nil {
			return errors.Wrapf(err, "Failed to record %dus", us)
		}
	}

	for _, bar := range hist.Distribution() {
		if bar.Count == 0 {
			continue
		}
		fmt.Fprintf(out, "%s\n", bar.String())
	}

	return nil
}
