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

// Package models holds the shared types passed between the CFM client,
// the classifier, and the fleet pipeline.
package models

import "strings"

// Credential identifies one CFM tenant for the duration of a run. It is
// provided once at pipeline start and never mutated.
type Credential struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Region       string `json:"region"`
}

// Valid reports whether the credential carries enough to attempt a token
// exchange.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Counter is one device counter after tolerant decoding. Present is false
// when the field was absent; Invalid is true when the field was present but
// not numeric. An invalid counter degrades any ratio computed from it to 0.
type Counter struct {
	Value   float64
	Present bool
	Invalid bool
}

// Or returns the counter value, or def when the field was absent.
func (c Counter) Or(def float64) float64 {
	if !c.Present {
		return def
	}

	return c.Value
}

// Counters are the page-volume counters consumed by classification.
type Counters struct {
	ColorPrintSides Counter
	PrintSides      Counter
	DuplexSheets    Counter
	PrintSheets     Counter
}

// Supply is one consumable slot reported by a device.
type Supply struct {
	Type             string
	Color            string
	PercentRemaining float64
}

// Alert is one active condition reported by a device.
type Alert struct {
	Status string
	Issue  string
}

// AssetRecord is one device record after tolerant decoding of the raw API
// payload. Identity is the dedup key: serialNumber, falling back to serial,
// falling back to id.
type AssetRecord struct {
	Identity string
	Model    string
	Counters Counters
	Supplies []Supply
	Alerts   []Alert
}

// Flag is a boolean classification outcome attached to a report.
type Flag string

const (
	FlagLowColorEfficiency Flag = "LowColorEfficiency"
	FlagLowDuplexUsage     Flag = "LowDuplexUsage"
	FlagLowSupplyLevel     Flag = "LowSupplyLevel"
	FlagCriticalAlert      Flag = "CriticalAlert"
)

// AllFlags lists every flag in stable column order for export.
func AllFlags() []Flag {
	return []Flag{FlagLowColorEfficiency, FlagLowDuplexUsage, FlagLowSupplyLevel, FlagCriticalAlert}
}

// ClassificationReport is the per-device output of the classifier. Created
// once per unique identity and immutable afterwards.
type ClassificationReport struct {
	Identity string        `json:"identity"`
	Model    string        `json:"model"`
	Insights []string      `json:"insights"`
	Flags    map[Flag]bool `json:"flags"`
}

// HasFlag reports whether the given flag is set on the report.
func (r *ClassificationReport) HasFlag(f Flag) bool {
	return r.Flags[f]
}

// PageMeta carries the optional pagination metadata extracted from a page
// envelope. A value of -1 means the API did not report the field.
type PageMeta struct {
	TotalPages int
	TotalCount int
}

// RunStatus is the lifecycle state of one pipeline run.
type RunStatus string

const (
	StatusIdle               RunStatus = "idle"
	StatusRunning            RunStatus = "running"
	StatusCompleted          RunStatus = "completed"
	StatusFailed             RunStatus = "failed"
	StatusAbortedSafetyLimit RunStatus = "aborted_safety_limit"
)

// Terminal reports whether the status ends the run.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusAbortedSafetyLimit
}

// StatusUpdate is the per-page snapshot published to the report sink. The
// Reports slice is a copy; the sink may hold it across renders without
// racing the pipeline.
type StatusUpdate struct {
	RunID        string
	Status       RunStatus
	PageIndex    int
	PageRecords  int
	TotalReports int
	Reports      []ClassificationReport
	Err          error
}
