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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromatix/printscope/pkg/models"
)

func TestUpdateSink_DeliversInOrder(t *testing.T) {
	sink := NewUpdateSink()

	sink.Publish(models.StatusUpdate{PageIndex: 0})
	sink.Publish(models.StatusUpdate{PageIndex: 1})

	u := <-sink.Updates()
	assert.Equal(t, 0, u.PageIndex)

	u = <-sink.Updates()
	assert.Equal(t, 1, u.PageIndex)
}

func TestUpdateSink_NeverBlocks(t *testing.T) {
	sink := NewUpdateSink()

	// Nobody is draining; overflow must drop, not hang the pipeline.
	for i := 0; i < sinkBuffer*2; i++ {
		sink.Publish(models.StatusUpdate{PageIndex: i})
	}

	require.Len(t, sink.ch, sinkBuffer)

	u := <-sink.Updates()
	assert.Equal(t, 0, u.PageIndex)
}
