// Package opstatus loads the static calendar operation-status document.
package opstatus

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/air4space/ops-console/internal/domain"
)

type document struct {
	OperationStatus map[string]int `json:"operation_status"`
}

// LoadFile reads the status document from disk and validates it. Date keys
// must be well-formed and levels within the 1..4 scale; anything else is a
// load error so a bad document is caught at startup, not on the calendar.
func LoadFile(path string) (domain.StatusMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read operation status: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (domain.StatusMap, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse operation status: %w", err)
	}

	statuses := make(domain.StatusMap, len(doc.OperationStatus))
	for key, level := range doc.OperationStatus {
		dateKey, err := domain.ParseDateKey(key)
		if err != nil {
			return nil, fmt.Errorf("operation status: %w", err)
		}
		lv := domain.StatusLevel(level)
		if !lv.Valid() {
			return nil, fmt.Errorf("operation status %s: invalid level %d", key, level)
		}
		statuses[dateKey] = lv
	}
	return statuses, nil
}
