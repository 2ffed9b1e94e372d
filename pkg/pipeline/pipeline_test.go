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

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chromatix/printscope/pkg/models"
)

var errFetchBroken = errors.New("fetch broken")

func testCredential() models.Credential {
	return models.Credential{ClientID: "id", ClientSecret: "secret", Region: "us"}
}

func record(identity string) models.AssetRecord {
	return models.AssetRecord{Identity: identity, Model: "CX950"}
}

func noMeta() models.PageMeta {
	return models.PageMeta{TotalPages: -1, TotalCount: -1}
}

func identities(reports []models.ClassificationReport) []string {
	out := make([]string, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.Identity)
	}

	return out
}

func TestRun_InvalidCredential(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)

	p := New(source, nil, Config{PageSize: 2, MaxPages: 10}, nil)

	result, err := p.Run(context.Background(), models.Credential{ClientID: "id"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyCredential)
	assert.Equal(t, models.StatusIdle, result.Status)
	assert.Empty(t, result.Reports)
}

func TestRun_DedupAcrossPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)

	// Page overlap: A1 reappears on page 1, a short page ends the run.
	gomock.InOrder(
		source.EXPECT().FetchPage(gomock.Any(), 0, 2).
			Return([]models.AssetRecord{record("A1"), record("A2")}, noMeta(), nil),
		source.EXPECT().FetchPage(gomock.Any(), 1, 2).
			Return([]models.AssetRecord{record("A1"), record("A3")}, noMeta(), nil),
		source.EXPECT().FetchPage(gomock.Any(), 2, 2).
			Return([]models.AssetRecord{record("A4")}, noMeta(), nil),
	)

	p := New(source, nil, Config{PageSize: 2, MaxPages: 10}, nil)

	result, err := p.Run(context.Background(), testCredential())
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, []string{"A1", "A2", "A3", "A4"}, identities(result.Reports))
}

func TestRun_EmptyFirstPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)

	source.EXPECT().FetchPage(gomock.Any(), 0, 2).
		Return(nil, noMeta(), nil)

	p := New(source, nil, Config{PageSize: 2, MaxPages: 10}, nil)

	result, err := p.Run(context.Background(), testCredential())
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Empty(t, result.Reports)
	assert.NotEmpty(t, result.RunID)
}

func TestRun_HonorsTotalPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)

	meta := models.PageMeta{TotalPages: 2, TotalCount: 4}

	// Both pages are full; only totalPages says the second one is the last.
	gomock.InOrder(
		source.EXPECT().FetchPage(gomock.Any(), 0, 2).
			Return([]models.AssetRecord{record("A1"), record("A2")}, meta, nil),
		source.EXPECT().FetchPage(gomock.Any(), 1, 2).
			Return([]models.AssetRecord{record("A3"), record("A4")}, meta, nil),
	)

	p := New(source, nil, Config{PageSize: 2, MaxPages: 10}, nil)

	result, err := p.Run(context.Background(), testCredential())
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Len(t, result.Reports, 4)
}

func TestRun_FetchFailureKeepsReports(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)

	gomock.InOrder(
		source.EXPECT().FetchPage(gomock.Any(), 0, 2).
			Return([]models.AssetRecord{record("A1"), record("A2")}, noMeta(), nil),
		source.EXPECT().FetchPage(gomock.Any(), 1, 2).
			Return(nil, noMeta(), errFetchBroken),
	)

	p := New(source, nil, Config{PageSize: 2, MaxPages: 10}, nil)

	result, err := p.Run(context.Background(), testCredential())

	require.Error(t, err)
	assert.ErrorIs(t, err, errFetchBroken)
	assert.Equal(t, models.StatusFailed, result.Status)
	// A partial run is never discarded.
	assert.Equal(t, []string{"A1", "A2"}, identities(result.Reports))
}

func TestRun_SafetyLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)

	const maxPages = 5

	// Every page is full and the API never reports totals.
	source.EXPECT().FetchPage(gomock.Any(), gomock.Any(), 1).
		DoAndReturn(func(_ context.Context, pageIndex, _ int) ([]models.AssetRecord, models.PageMeta, error) {
			return []models.AssetRecord{record("SN-" + string(rune('a'+pageIndex)))}, noMeta(), nil
		}).Times(maxPages)

	p := New(source, nil, Config{PageSize: 1, MaxPages: maxPages}, nil)

	result, err := p.Run(context.Background(), testCredential())
	require.NoError(t, err)

	assert.Equal(t, models.StatusAbortedSafetyLimit, result.Status)
	assert.Len(t, result.Reports, maxPages)
}

func TestRun_CancelledBeforeNextPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	source.EXPECT().FetchPage(gomock.Any(), 0, 2).
		DoAndReturn(func(_ context.Context, _, _ int) ([]models.AssetRecord, models.PageMeta, error) {
			cancel()

			return []models.AssetRecord{record("A1"), record("A2")}, noMeta(), nil
		})

	p := New(source, nil, Config{PageSize: 2, MaxPages: 10}, nil)

	result, err := p.Run(ctx, testCredential())
	require.NoError(t, err)

	// A stop keeps what was gathered and counts as a normal completion.
	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, []string{"A1", "A2"}, identities(result.Reports))
}

func TestRun_SkipsIdentitylessRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)

	source.EXPECT().FetchPage(gomock.Any(), 0, 3).
		Return([]models.AssetRecord{record("A1"), {Model: "CX950"}, record("A2")}, noMeta(), nil)

	p := New(source, nil, Config{PageSize: 3, MaxPages: 10}, nil)

	result, err := p.Run(context.Background(), testCredential())
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "A2"}, identities(result.Reports))
}

func TestRun_PublishesPerPageSnapshots(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)
	sink := NewMockSink(ctrl)

	gomock.InOrder(
		source.EXPECT().FetchPage(gomock.Any(), 0, 2).
			Return([]models.AssetRecord{record("A1"), record("A2")}, noMeta(), nil),
		source.EXPECT().FetchPage(gomock.Any(), 1, 2).
			Return([]models.AssetRecord{record("A3")}, noMeta(), nil),
	)

	var updates []models.StatusUpdate

	sink.EXPECT().Publish(gomock.Any()).
		Do(func(u models.StatusUpdate) { updates = append(updates, u) }).
		Times(3)

	p := New(source, sink, Config{PageSize: 2, MaxPages: 10}, nil)

	result, err := p.Run(context.Background(), testCredential())
	require.NoError(t, err)

	// Two page updates plus the terminal one.
	require.Len(t, updates, 3)

	assert.Equal(t, models.StatusRunning, updates[0].Status)
	assert.Equal(t, 2, updates[0].TotalReports)
	assert.Equal(t, models.StatusRunning, updates[1].Status)
	assert.Equal(t, 3, updates[1].TotalReports)

	final := updates[2]
	assert.Equal(t, models.StatusCompleted, final.Status)
	assert.Equal(t, result.RunID, final.RunID)
	assert.NoError(t, final.Err)
	assert.Equal(t, identities(result.Reports), identities(final.Reports))
}

func TestRun_FinalUpdateCarriesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockPageSource(ctrl)
	sink := NewMockSink(ctrl)

	source.EXPECT().FetchPage(gomock.Any(), 0, 2).
		Return(nil, noMeta(), errFetchBroken)

	var final models.StatusUpdate

	sink.EXPECT().Publish(gomock.Any()).
		Do(func(u models.StatusUpdate) { final = u })

	p := New(source, sink, Config{PageSize: 2, MaxPages: 10}, nil)

	_, err := p.Run(context.Background(), testCredential())
	require.Error(t, err)

	assert.Equal(t, models.StatusFailed, final.Status)
	assert.ErrorIs(t, final.Err, errFetchBroken)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, defaultPageSize, cfg.PageSize)
	assert.Equal(t, defaultMaxPages, cfg.MaxPages)

	cfg = Config{PageSize: -1}
	assert.Error(t, cfg.Validate())

	cfg = Config{MaxPages: -1}
	assert.Error(t, cfg.Validate())
}
