package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/focusflow/internal/store"
)

var csvHeader = []string{"ID", "Session ID", "Type", "Outcome", "Task", "Ended", "Planned (s)", "Focused (s)", "Focused", "Paused (ms)"}

func ToCSV(entries []store.HistoryEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, entries); err != nil {
		return err
	}
	return f.Close()
}

func WriteCSV(out io.Writer, entries []store.HistoryEntry) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		remoteID := ""
		if e.RemoteID != nil {
			remoteID = strconv.FormatInt(*e.RemoteID, 10)
		}
		row := []string{
			strconv.FormatInt(e.ID, 10),
			remoteID,
			string(e.SessionType),
			string(e.Outcome),
			e.TaskTitle,
			e.EndedAt.Local().Format(time.RFC3339),
			strconv.FormatInt(e.PlannedSeconds, 10),
			strconv.FormatInt(e.FocusedSeconds, 10),
			formatDuration(e.FocusedSeconds),
			strconv.FormatInt(e.PausedMs, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
