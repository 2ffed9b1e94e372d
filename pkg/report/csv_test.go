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

package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromatix/printscope/pkg/models"
)

func sampleReports() []models.ClassificationReport {
	return []models.ClassificationReport{
		{
			Identity: "SN1",
			Model:    "CX950",
			Insights: []string{"color usage 90%", "critical alerts: 1"},
			Flags: map[models.Flag]bool{
				models.FlagLowColorEfficiency: true,
				models.FlagCriticalAlert:      true,
			},
		},
		{
			Identity: "SN2",
			Model:    "MX532",
			Insights: []string{},
			Flags:    map[models.Flag]bool{},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, sampleReports()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"identity", "model", "insights",
		"low_color_efficiency", "low_duplex_usage", "low_supply_level", "critical_alert",
	}, rows[0])

	assert.Equal(t, []string{
		"SN1", "CX950", "color usage 90% | critical alerts: 1",
		"true", "false", "false", "true",
	}, rows[1])

	assert.Equal(t, []string{
		"SN2", "MX532", "",
		"false", "false", "false", "false",
	}, rows[2])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	// Header only.
	require.Len(t, rows, 1)
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet_report.csv")

	require.NoError(t, ExportFile(path, sampleReports()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SN1,CX950")

	// Re-export truncates rather than appends.
	require.NoError(t, ExportFile(path, nil))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "SN1")
}
