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

// Package report pkg/report/savings.go derives the monthly savings estimate
// and recommended policies from a report's flags. These are display-layer
// heuristics, not classification output: the flag model is authoritative
// and the monetary figures are rough per-flag weights.
package report

import "github.com/chromatix/printscope/pkg/models"

// Per-flag monthly savings weights.
const (
	savingsColor  = 120
	savingsDuplex = 80
	savingsSupply = 50
)

// HighImpactThreshold marks devices worth listing first in the dashboard.
const HighImpactThreshold = 100

// EstimateSavings sums the savings weights of the report's flags. A report
// with only a CriticalAlert flag estimates zero; maintenance is a cost, not
// a saving.
func EstimateSavings(r *models.ClassificationReport) float64 {
	var total float64

	if r.HasFlag(models.FlagLowColorEfficiency) {
		total += savingsColor
	}

	if r.HasFlag(models.FlagLowDuplexUsage) {
		total += savingsDuplex
	}

	if r.HasFlag(models.FlagLowSupplyLevel) {
		total += savingsSupply
	}

	return total
}

// Policies lists the recommended actions for the report's flags, in flag
// order.
func Policies(r *models.ClassificationReport) []string {
	var policies []string

	if r.HasFlag(models.FlagLowColorEfficiency) {
		policies = append(policies, "default to mono")
	}

	if r.HasFlag(models.FlagLowDuplexUsage) {
		policies = append(policies, "enable duplex")
	}

	if r.HasFlag(models.FlagLowSupplyLevel) {
		policies = append(policies, "auto supply replenishment")
	}

	if r.HasFlag(models.FlagCriticalAlert) {
		policies = append(policies, "schedule maintenance")
	}

	return policies
}

// TotalSavings sums the estimate across all reports.
func TotalSavings(reports []models.ClassificationReport) float64 {
	var total float64

	for i := range reports {
		total += EstimateSavings(&reports[i])
	}

	return total
}

// HighImpact returns the reports whose estimate clears the threshold,
// preserving discovery order.
func HighImpact(reports []models.ClassificationReport) []models.ClassificationReport {
	var out []models.ClassificationReport

	for i := range reports {
		if EstimateSavings(&reports[i]) > HighImpactThreshold {
			out = append(out, reports[i])
		}
	}

	return out
}

// DistinctPolicies collects the policy set across all reports, first
// occurrence first.
func DistinctPolicies(reports []models.ClassificationReport) []string {
	seen := make(map[string]struct{})

	var out []string

	for i := range reports {
		for _, p := range Policies(&reports[i]) {
			if _, ok := seen[p]; ok {
				continue
			}

			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	return out
}
