package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxHistoryEntries = 200

type HistoryEntry struct {
	SQL  string    `json:"sql"`
	Time time.Time `json:"time"`
}

// QueryHistory keeps executed raw statements, newest first, persisted as JSON
// next to the rest of the per-user state.
type QueryHistory struct {
	entries []HistoryEntry
	path    string
}

func NewQueryHistory() (*QueryHistory, error) {
	h := &QueryHistory{
		path: filepath.Join(configDir(), "history.json"),
	}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *QueryHistory) load() error {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history: %w", err)
	}
	if err := json.Unmarshal(data, &h.entries); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return nil
}

// Add prepends the statement, dropping an earlier duplicate so repeated
// queries don't crowd the list.
func (h *QueryHistory) Add(sqlText string) error {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return nil
	}
	kept := make([]HistoryEntry, 0, len(h.entries)+1)
	kept = append(kept, HistoryEntry{SQL: sqlText, Time: time.Now()})
	for _, e := range h.entries {
		if e.SQL == sqlText {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > maxHistoryEntries {
		kept = kept[:maxHistoryEntries]
	}
	h.entries = kept
	return h.save()
}

func (h *QueryHistory) save() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(h.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

func (h *QueryHistory) Len() int { return len(h.entries) }

// Get returns the i-th most recent statement, empty when out of range.
func (h *QueryHistory) Get(i int) string {
	if i < 0 || i >= len(h.entries) {
		return ""
	}
	return h.entries[i].SQL
}
