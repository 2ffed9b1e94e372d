/*
 * Copyright 2026 Chromatix Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package pipeline drives the page-by-page fetch, dedup, and classification
// loop and owns the run's state machine. Pages are processed strictly
// sequentially; classification is cheap and discovery order matters more
// than throughput.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/chromatix/printscope/pkg/classify"
	"github.com/chromatix/printscope/pkg/logger"
	"github.com/chromatix/printscope/pkg/models"
)

const (
	defaultPageSize = 200
	// defaultMaxPages bounds a run against an API that never reports
	// completion. Reaching it ends the run as AbortedSafetyLimit, a warning
	// rather than an error; all reports are retained.
	defaultMaxPages = 100
)

// Config holds the pipeline tuning knobs.
type Config struct {
	PageSize int `json:"page_size,omitempty"`
	MaxPages int `json:"max_pages,omitempty"`
}

// Validate applies defaults and rejects nonsensical values.
func (c *Config) Validate() error {
	if c.PageSize == 0 {
		c.PageSize = defaultPageSize
	}

	if c.MaxPages == 0 {
		c.MaxPages = defaultMaxPages
	}

	if c.PageSize < 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}

	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must be positive, got %d", c.MaxPages)
	}

	return nil
}

// Result is what a run leaves behind. Reports are retained for every
// terminal status; a partial run is never discarded.
type Result struct {
	RunID   string
	Status  models.RunStatus
	Pages   int
	Reports []models.ClassificationReport
}

// FleetPipeline pulls pages from a PageSource, classifies each new
// identity, and publishes per-page snapshots to a Sink. One FleetPipeline
// serves many runs; each Run starts from fresh state.
type FleetPipeline struct {
	source PageSource
	sink   Sink
	config Config
	log    logger.Logger
}

// New creates a pipeline. A nil sink discards updates.
func New(source PageSource, sink Sink, config Config, log logger.Logger) *FleetPipeline {
	if sink == nil {
		sink = NopSink{}
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &FleetPipeline{source: source, sink: sink, config: config, log: log}
}

// Run executes one full fetch-classify run. It always returns a Result with
// whatever reports accumulated; the error is non-nil only for the Failed
// status (or an invalid credential, which fails before any network call).
// Cancellation is observed at the top of the page loop and ends the run as
// Completed with the reports gathered so far.
func (p *FleetPipeline) Run(ctx context.Context, cred models.Credential) (*Result, error) {
	if !cred.Valid() {
		return &Result{Status: models.StatusIdle}, ErrEmptyCredential
	}

	st := newState(uuid.NewString())
	st.status = models.StatusRunning

	log := p.log.With().Str("run_id", st.runID).Logger()
	log.Info().Str("region", cred.Region).Msg("Starting fleet analysis run")

	var runErr error

	for {
		if ctx.Err() != nil {
			log.Info().Int("pages", st.page).Msg("Run stopped by operator")

			st.status = models.StatusCompleted

			break
		}

		if st.page >= p.config.MaxPages {
			log.Warn().
				Int("max_pages", p.config.MaxPages).
				Msg("Safety limit reached before the API reported completion")

			st.status = models.StatusAbortedSafetyLimit

			break
		}

		records, meta, err := p.source.FetchPage(ctx, st.page, p.config.PageSize)
		if err != nil {
			log.Error().Err(err).Int("page", st.page).Msg("Page fetch failed, ending run")

			st.status = models.StatusFailed
			runErr = fmt.Errorf("page %d: %w", st.page, err)

			break
		}

		if len(records) == 0 {
			st.status = models.StatusCompleted

			break
		}

		p.processPage(st, records)
		p.sink.Publish(st.update(len(records)))

		log.Debug().
			Int("page", st.page).
			Int("page_records", len(records)).
			Int("total_reports", len(st.reports)).
			Msg("Processed page")

		if lastPage(st.page, len(records), p.config.PageSize, meta) {
			st.status = models.StatusCompleted

			break
		}

		st.page++
	}

	final := st.update(0)
	final.Err = runErr
	p.sink.Publish(final)

	log.Info().
		Str("status", string(st.status)).
		Int("reports", len(st.reports)).
		Msg("Run finished")

	return &Result{
		RunID:   st.runID,
		Status:  st.status,
		Pages:   st.page,
		Reports: st.snapshot(),
	}, runErr
}

// processPage classifies every record not seen on an earlier page. Records
// without any identity field cannot be deduplicated and are skipped.
func (p *FleetPipeline) processPage(st *state, records []models.AssetRecord) {
	for i := range records {
		rec := &records[i]

		if rec.Identity == "" {
			p.log.Warn().Int("page", st.page).Msg("Skipping record without identity")
			continue
		}

		if !st.admit(rec.Identity) {
			continue
		}

		st.append(classify.Classify(*rec))
	}
}

// lastPage reports whether the just-processed page was the final one: the
// reported totalPages says so, or the page came back short of the requested
// size.
func lastPage(pageIndex, pageRecords, pageSize int, meta models.PageMeta) bool {
	if meta.TotalPages >= 0 && pageIndex >= meta.TotalPages-1 {
		return true
	}

	return pageRecords < pageSize
}
