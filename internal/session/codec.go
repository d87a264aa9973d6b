package session

import (
	"encoding/json"
	"fmt"
)

// recordVersion tags persisted slots so a future schema change can
// migrate old records instead of silently discarding them.
const recordVersion = 1

type record[T any] struct {
	Version int `json:"v"`
	Items   []T `json:"items"`
}

func encodeRecord[T any](items []T) (string, error) {
	b, err := json.Marshal(record[T]{Version: recordVersion, Items: items})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRecord[T any](raw string) ([]T, error) {
	var rec record[T]
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("unknown record version %d", rec.Version)
	}
	return rec.Items, nil
}
