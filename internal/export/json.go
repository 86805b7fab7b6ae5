package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/focusflow/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID             int64  `json:"id"`
	SessionID      *int64 `json:"session_id,omitempty"`
	TaskID         *int64 `json:"task_id,omitempty"`
	Task           string `json:"task,omitempty"`
	SessionType    string `json:"session_type"`
	Outcome        string `json:"outcome"`
	EndedAt        string `json:"ended_at"`
	PlannedSeconds int64  `json:"planned_seconds"`
	FocusedSeconds int64  `json:"focused_seconds"`
	Focused        string `json:"focused"`
	PausedMs       int64  `json:"paused_ms"`
}

func ToJSON(entries []store.HistoryEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, entries, time.Now()); err != nil {
		return err
	}
	return f.Close()
}

func WriteJSON(w io.Writer, entries []store.HistoryEntry, now time.Time) error {
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(entries),
		Entries:    make([]jsonEntry, 0, len(entries)),
	}

	for _, e := range entries {
		export.Entries = append(export.Entries, jsonEntry{
			ID:             e.ID,
			SessionID:      e.RemoteID,
			TaskID:         e.TaskID,
			Task:           e.TaskTitle,
			SessionType:    string(e.SessionType),
			Outcome:        string(e.Outcome),
			EndedAt:        e.EndedAt.Local().Format(time.RFC3339),
			PlannedSeconds: e.PlannedSeconds,
			FocusedSeconds: e.FocusedSeconds,
			Focused:        formatDuration(e.FocusedSeconds),
			PausedMs:       e.PausedMs,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
