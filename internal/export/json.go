package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/forceradar/internal/sim"
)

type Snapshot struct {
	RunID   string             `json:"run_id,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	*sim.Frame
}

// WriteJSON encodes a frame, indented, with optional run metadata.
func WriteJSON(w io.Writer, runID string, metrics map[string]float64, f *sim.Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Snapshot{RunID: runID, Metrics: metrics, Frame: f})
}

func WriteJSONFile(path, runID string, metrics map[string]float64, f *sim.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, runID, metrics, f)
}
