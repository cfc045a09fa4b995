package hierarchy

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// LoadScheduleCSV parses a tariff schedule extract into nodes. The expected
// columns are code, description, general rate, and an optional semicolon
// list of FTA special rates ("USMCA=Free;KORUS=Free"). Level and parent are
// derived from the canonical code, so rows may appear in any order but every
// ancestor of a row must be present somewhere in the file for the store to
// accept the snapshot later.
func LoadScheduleCSV(r io.Reader) ([]model.HtsNode, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: schedule CSV is empty", common.ErrInvalidInput)
	}

	// Skip a header row if present.
	start := 0
	if strings.EqualFold(strings.TrimSpace(records[0][0]), "code") {
		start = 1
	}

	var nodes []model.HtsNode
	for i, record := range records[start:] {
		line := start + i + 1
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: line %d has %d columns, want at least code and description",
				common.ErrInvalidInput, line, len(record))
		}

		code, err := Normalize(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		level, err := model.LevelForLength(len(code))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		node := model.HtsNode{
			Code:        code,
			Level:       level,
			Description: strings.TrimSpace(record[1]),
		}
		if len(code) > 2 {
			node.ParentCode = code[:len(code)-2]
		}
		if len(record) > 2 {
			node.GeneralRate = strings.TrimSpace(record[2])
		}
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			node.SpecialRates, err = parseSpecialRates(record[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func parseSpecialRates(raw string) (map[string]string, error) {
	rates := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		program, rate, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(program) == "" || strings.TrimSpace(rate) == "" {
			return nil, fmt.Errorf("%w: malformed special rate %q", common.ErrInvalidInput, pair)
		}
		rates[strings.TrimSpace(program)] = strings.TrimSpace(rate)
	}
	return rates, nil
}
