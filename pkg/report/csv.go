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

// Package report turns the accumulated classification reports into display
// values and the exportable CSV artifact. Everything here is derived,
// read-only presentation; the pipeline owns the reports themselves.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chromatix/printscope/pkg/models"
)

const insightDelimiter = " | "

// WriteCSV writes one row per report: identity, model, the insights joined
// with a delimiter, and one boolean column per flag in stable order.
func WriteCSV(w io.Writer, reports []models.ClassificationReport) error {
	cw := csv.NewWriter(w)

	header := []string{"identity", "model", "insights"}
	for _, flag := range models.AllFlags() {
		header = append(header, flagColumn(flag))
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range reports {
		r := &reports[i]

		row := []string{r.Identity, r.Model, strings.Join(r.Insights, insightDelimiter)}
		for _, flag := range models.AllFlags() {
			row = append(row, strconv.FormatBool(r.HasFlag(flag)))
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", r.Identity, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// ExportFile writes the CSV artifact to path, creating or truncating it.
func ExportFile(path string, reports []models.ClassificationReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := WriteCSV(f, reports); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

// flagColumn converts a flag name to its snake_case CSV column.
func flagColumn(flag models.Flag) string {
	var b strings.Builder

	for i, r := range string(flag) {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}

			b.WriteRune(r + ('a' - 'A'))

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
