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

// Package classify evaluates asset records against the cost and maintenance
// heuristics. Classification is pure: no I/O, no shared state, and every
// rule runs regardless of the others, so a record may carry any subset of
// flags. A malformed counter degrades its own rule to default-false without
// affecting the remaining rules.
package classify

import (
	"fmt"
	"strings"

	"github.com/chromatix/printscope/pkg/models"
)

const (
	colorRatioThreshold  = 0.7
	duplexRatioThreshold = 0.5
	lowTonerPercent      = 20
	supplyTypeToner      = "Toner"
)

// Classify evaluates one asset record and produces its report.
func Classify(rec models.AssetRecord) models.ClassificationReport {
	report := models.ClassificationReport{
		Identity: rec.Identity,
		Model:    rec.Model,
		Insights: []string{},
		Flags:    make(map[models.Flag]bool),
	}

	if ratio, ok := colorRatio(rec.Counters); ok && ratio > colorRatioThreshold {
		report.Insights = append(report.Insights, fmt.Sprintf("color usage %.0f%%", ratio*100))
		report.Flags[models.FlagLowColorEfficiency] = true
	}

	if ratio, ok := duplexRatio(rec.Counters); ok && ratio < duplexRatioThreshold {
		report.Insights = append(report.Insights, fmt.Sprintf("duplex usage %.0f%%", ratio*100))
		report.Flags[models.FlagLowDuplexUsage] = true
	}

	if colors := lowTonerColors(rec.Supplies); len(colors) > 0 {
		report.Insights = append(report.Insights, "low toner: "+strings.Join(colors, ", "))
		report.Flags[models.FlagLowSupplyLevel] = true
	}

	if n := criticalAlertCount(rec.Alerts); n > 0 {
		report.Insights = append(report.Insights, fmt.Sprintf("critical alerts: %d", n))
		report.Flags[models.FlagCriticalAlert] = true
	}

	return report
}

// colorRatio is colorPrintSideCount / printSideCount. The second return is
// false when the rule cannot be evaluated: a malformed operand, no counter
// data at all, or a non-positive denominator all degrade the ratio to 0.
func colorRatio(c models.Counters) (float64, bool) {
	if c.ColorPrintSides.Invalid || c.PrintSides.Invalid {
		return 0, false
	}

	if !c.ColorPrintSides.Present && !c.PrintSides.Present {
		return 0, false
	}

	den := c.PrintSides.Or(1)
	if den <= 0 {
		return 0, false
	}

	return c.ColorPrintSides.Or(0) / den, true
}

// duplexRatio is duplexSheetCount / printSheetCount with the same
// degradation behavior as colorRatio. A device that reports sheet counters
// but printed nothing duplex still evaluates (to 0), which flags it.
func duplexRatio(c models.Counters) (float64, bool) {
	if c.DuplexSheets.Invalid || c.PrintSheets.Invalid {
		return 0, false
	}

	if !c.DuplexSheets.Present && !c.PrintSheets.Present {
		return 0, false
	}

	den := c.PrintSheets.Or(1)
	if den <= 0 {
		return 0, true
	}

	return c.DuplexSheets.Or(0) / den, true
}

func lowTonerColors(supplies []models.Supply) []string {
	var colors []string

	for _, s := range supplies {
		if s.Type == supplyTypeToner && s.PercentRemaining < lowTonerPercent {
			colors = append(colors, s.Color)
		}
	}

	return colors
}

func criticalAlertCount(alerts []models.Alert) int {
	n := 0

	for _, a := range alerts {
		if a.Status == "ERROR" || a.Status == "CRITICAL" {
			n++
		}
	}

	return n
}
