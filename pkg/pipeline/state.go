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

// Package pipeline pkg/pipeline/state.go
package pipeline

import "github.com/chromatix/printscope/pkg/models"

// state is the per-run accumulator. A new run gets a fresh state; the prior
// run's reports are discarded, never merged. Invariant: len(seen) equals
// len(reports), and reports keeps first-discovery order across pages.
type state struct {
	runID   string
	status  models.RunStatus
	page    int
	reports []models.ClassificationReport
	seen    map[string]struct{}
}

func newState(runID string) *state {
	return &state{
		runID:   runID,
		status:  models.StatusIdle,
		reports: make([]models.ClassificationReport, 0),
		seen:    make(map[string]struct{}),
	}
}

// admit records an identity if unseen and reports whether it was new.
func (s *state) admit(identity string) bool {
	if _, ok := s.seen[identity]; ok {
		return false
	}

	s.seen[identity] = struct{}{}

	return true
}

func (s *state) append(report models.ClassificationReport) {
	s.reports = append(s.reports, report)
}

// snapshot copies the accumulated reports so a renderer can hold them while
// the pipeline keeps appending.
func (s *state) snapshot() []models.ClassificationReport {
	out := make([]models.ClassificationReport, len(s.reports))
	copy(out, s.reports)

	return out
}

func (s *state) update(pageRecords int) models.StatusUpdate {
	return models.StatusUpdate{
		RunID:        s.runID,
		Status:       s.status,
		PageIndex:    s.page,
		PageRecords:  pageRecords,
		TotalReports: len(s.reports),
		Reports:      s.snapshot(),
	}
}
