package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/timmy/promptgallery/internal/domain"
)

var errUnsupportedShape = errors.New("data file must hold a JSON object or an array of objects")

// decodeRecords parses a data file holding one record or an array of records.
// With repair set, malformed JSON gets one repair attempt before failing.
func decodeRecords(raw []byte, repair bool) ([]domain.Prompt, error) {
	records, err := decodeStrict(raw)
	if err == nil || !repair || errors.Is(err, errUnsupportedShape) {
		return records, err
	}

	fixed, repairErr := jsonrepair.RepairJSON(string(raw))
	if repairErr != nil {
		return nil, fmt.Errorf("%w (repair failed: %v)", err, repairErr)
	}
	return decodeStrict([]byte(fixed))
}

func decodeStrict(raw []byte) ([]domain.Prompt, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty data file")
	}

	switch trimmed[0] {
	case '{':
		var p domain.Prompt
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("invalid record: %w", err)
		}
		return []domain.Prompt{p}, nil
	case '[':
		var ps []domain.Prompt
		if err := json.Unmarshal(trimmed, &ps); err != nil {
			return nil, fmt.Errorf("invalid record array: %w", err)
		}
		return ps, nil
	default:
		if json.Valid(trimmed) {
			return nil, errUnsupportedShape
		}
		return nil, fmt.Errorf("invalid JSON")
	}
}

// Validate checks that raw is a publishable data file: one record or an
// array of records, each with an id. It returns the record count.
func Validate(raw []byte) (int, error) {
	records, err := decodeStrict(raw)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if rec.ID == "" {
			return 0, fmt.Errorf("record %d has no id", i)
		}
	}
	return len(records), nil
}
