// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcodagnone/georesolver/gazetteer"
)

// ReadRows parses input rows from CSV. The first record is a header; the
// name column is required, country, language and place_type are optional and
// matched by name, not position.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input is empty, expected a CSV header")
	}

	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	nameCol, ok := columns["name"]
	if !ok {
		return nil, fmt.Errorf("CSV header %v lacks the required 'name' column", header)
	}

	var rows []Row

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line, err)
		}

		row := Row{Name: strings.TrimSpace(record[nameCol])}

		if i, ok := columns["country"]; ok && i < len(record) {
			row.Country = strings.TrimSpace(record[i])
		}

		if i, ok := columns["language"]; ok && i < len(record) {
			row.Language = strings.TrimSpace(record[i])
		}

		if i, ok := columns["place_type"]; ok && i < len(record) {
			row.PlaceType = strings.TrimSpace(record[i])
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// WriteResults writes resolved rows as CSV, echoing the input columns before
// the resolution columns so the output joins back to the input trivially.
func WriteResults(w io.Writer, results []RowResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{
		"name", "country", "language", "place_type",
		"outcome", "source", "score", "matched_name", "matched_id",
		"lat", "lng", "error",
	}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for i := range results {
		result := &results[i]

		score, lat, lng := "", "", ""

		if result.Outcome == gazetteer.OutcomeMatched {
			score = strconv.FormatFloat(result.Score, 'f', 1, 64)
		}

		if result.Point != nil {
			lat = strconv.FormatFloat(result.Point.Lat, 'f', -1, 64)
			lng = strconv.FormatFloat(result.Point.Lng, 'f', -1, 64)
		}

		if err := writer.Write([]string{
			result.Name, result.Country, result.Language, result.PlaceType,
			string(result.Outcome), result.Source, score,
			result.MatchedName, result.MatchedID,
			lat, lng, result.Err,
		}); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i+1, err)
		}
	}

	writer.Flush()

	return writer.Error()
}
