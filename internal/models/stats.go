package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// StatsGroup is one table of backend statistics. On the wire each group
// is a two-element array: [headerRow, dataRows], where headerRow is an
// array of column labels and dataRows is an array of rows whose cells
// may be strings or numbers. Cells are normalized to strings on decode.
type StatsGroup struct {
	Header []string
	Rows   [][]string
}

// StatsResponse is the body of GET api/stats/: an array of groups.
type StatsResponse []StatsGroup

func (g *StatsGroup) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("stats group has %d elements, want 2", len(parts))
	}
	if err := json.Unmarshal(parts[0], &g.Header); err != nil {
		return fmt.Errorf("stats group header: %w", err)
	}
	var rows [][]any
	if err := json.Unmarshal(parts[1], &rows); err != nil {
		return fmt.Errorf("stats group rows: %w", err)
	}
	g.Rows = make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = statsCell(cell)
		}
		g.Rows[i] = cells
	}
	return nil
}

func (g StatsGroup) MarshalJSON() ([]byte, error) {
	rows := g.Rows
	if rows == nil {
		rows = [][]string{}
	}
	header := g.Header
	if header == nil {
		header = []string{}
	}
	return json.Marshal([2]any{header, rows})
}

func statsCell(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", c)
	}
}
