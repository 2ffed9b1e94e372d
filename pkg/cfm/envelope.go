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

// Package cfm pkg/cfm/envelope.go detects the shape of a page response and
// decodes raw asset records tolerantly. The upstream pagination envelope is
// not contractually stable, so the record list is located by a fixed-priority
// key probe rather than a typed response struct.
package cfm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/chromatix/printscope/pkg/models"
)

// envelopeKeys is the priority order for locating the record list inside a
// page envelope. Two keys may both hold lists; the first match wins.
var envelopeKeys = []string{"content", "assets", "items", "data", "results"}

var (
	totalPagesKeys = []string{"totalPages", "total_pages", "pageCount"}
	totalCountKeys = []string{"totalElements", "totalCount", "total"}
)

type envelopeField struct {
	key string
	raw json.RawMessage
}

// parseEnvelope splits a page body into its raw records and pagination
// metadata. The body may be a bare array or an object wrapping one; an
// object with no list-valued field at all yields zero records, which the
// pipeline reads as end of data.
func parseEnvelope(body []byte) ([]json.RawMessage, models.PageMeta, error) {
	meta := models.PageMeta{TotalPages: -1, TotalCount: -1}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, meta, nil
	}

	if trimmed[0] == '[' {
		var records []json.RawMessage

		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, meta, err
		}

		return records, meta, nil
	}

	fields, err := objectFields(trimmed)
	if err != nil {
		return nil, meta, err
	}

	byKey := make(map[string]json.RawMessage, len(fields))

	for _, f := range fields {
		if _, ok := byKey[f.key]; !ok {
			byKey[f.key] = f.raw
		}
	}

	for _, key := range totalPagesKeys {
		if n, ok := intField(byKey[key]); ok {
			meta.TotalPages = n
			break
		}
	}

	for _, key := range totalCountKeys {
		if n, ok := intField(byKey[key]); ok {
			meta.TotalCount = n
			break
		}
	}

	for _, key := range envelopeKeys {
		if records, ok := listField(byKey[key]); ok {
			return records, meta, nil
		}
	}

	// No conventional key matched; fall back to the first list-valued field
	// in document order.
	for _, f := range fields {
		if records, ok := listField(f.raw); ok {
			return records, meta, nil
		}
	}

	return nil, meta, nil
}

// objectFields reads the top-level fields of a JSON object preserving
// document order, which map unmarshaling would lose.
func objectFields(body []byte) ([]envelopeField, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errUnexpectedEnvelope
	}

	var fields []envelopeField

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, ok := keyTok.(string)
		if !ok {
			return nil, errUnexpectedEnvelope
		}

		var raw json.RawMessage

		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}

		fields = append(fields, envelopeField{key: key, raw: raw})
	}

	return fields, nil
}

func listField(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}

	var records []json.RawMessage

	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, false
	}

	return records, true
}

func intField(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var num json.Number

	if err := json.Unmarshal(raw, &num); err == nil {
		if n, err := num.Int64(); err == nil {
			return int(n), true
		}

		if f, err := num.Float64(); err == nil {
			return int(f), true
		}

		return 0, false
	}

	// Some API versions quote their numbers.
	var s string

	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}

	return 0, false
}

// decodeRecord maps one raw asset record onto an AssetRecord, applying the
// documented defaults. Malformed numeric fields mark their counter invalid
// instead of failing the record; the dependent classification rule degrades
// to its default-false state.
func decodeRecord(raw json.RawMessage) (models.AssetRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]interface{}

	if err := dec.Decode(&obj); err != nil {
		return models.AssetRecord{}, err
	}

	rec := models.AssetRecord{
		Identity: firstNonEmptyString(obj, "serialNumber", "serial", "id"),
		Model:    stringValue(obj["modelName"]),
	}

	if counters, ok := obj["counters"].(map[string]interface{}); ok {
		rec.Counters = models.Counters{
			ColorPrintSides: counterValue(counters, "colorPrintSideCount"),
			PrintSides:      counterValue(counters, "printSideCount"),
			DuplexSheets:    counterValue(counters, "duplexSheetCount"),
			PrintSheets:     counterValue(counters, "printSheetCount"),
		}
	}

	rec.Supplies = decodeSupplies(obj["supplies"])
	rec.Alerts = decodeAlerts(obj["alerts"])

	return rec, nil
}

func firstNonEmptyString(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(obj[key]); s != "" {
			return s
		}
	}

	return ""
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func counterValue(counters map[string]interface{}, key string) models.Counter {
	v, ok := counters[key]
	if !ok || v == nil {
		return models.Counter{}
	}

	f, ok := numberValue(v)
	if !ok {
		return models.Counter{Present: true, Invalid: true}
	}

	return models.Counter{Value: f, Present: true}
}

func numberValue(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}

		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

const defaultPercentRemaining = 100

func decodeSupplies(v interface{}) []models.Supply {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	supplies := make([]models.Supply, 0, len(items))

	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		percent := float64(defaultPercentRemaining)
		if f, ok := numberValue(obj["percentRemaining"]); ok {
			percent = f
		}

		supplies = append(supplies, models.Supply{
			Type:             stringValue(obj["type"]),
			Color:            stringValue(obj["color"]),
			PercentRemaining: percent,
		})
	}

	return supplies
}

func decodeAlerts(v interface{}) []models.Alert {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	alerts := make([]models.Alert, 0, len(items))

	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		alerts = append(alerts, models.Alert{
			Status: stringValue(obj["status"]),
			Issue:  stringValue(obj["issue"]),
		})
	}

	return alerts
}
