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

package tui

import "github.com/chromatix/printscope/pkg/models"

const sinkBuffer = 64

// UpdateSink bridges the pipeline's per-page updates into the TUI event
// loop. Publish never blocks: when the buffer is full the update is dropped
// and the next page's snapshot supersedes it, since every update carries
// the full cumulative report set.
type UpdateSink struct {
	ch chan models.StatusUpdate
}

// NewUpdateSink creates a sink for one run.
func NewUpdateSink() *UpdateSink {
	return &UpdateSink{ch: make(chan models.StatusUpdate, sinkBuffer)}
}

// Publish implements pipeline.Sink.
func (s *UpdateSink) Publish(update models.StatusUpdate) {
	select {
	case s.ch <- update:
	default:
	}
}

// Updates exposes the receive side for the TUI event loop.
func (s *UpdateSink) Updates() <-chan models.StatusUpdate {
	return s.ch
}
