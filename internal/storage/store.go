package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/forceradar/internal/config"
	"github.com/san-kum/forceradar/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Dataset    string             `json:"dataset"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Ticks      int                `json:"ticks"`
	Settled    bool               `json:"settled"`
	FinalAlpha float64            `json:"final_alpha"`
	Points     int                `json:"points"`
	Simulation config.Simulation  `json:"simulation"`
	Chart      config.Chart       `json:"chart"`
	Targets    []sim.TargetView   `json:"targets"`
	Metrics    map[string]float64 `json:"metrics"`
}

// RunInfo describes how a run was started.
type RunInfo struct {
	Dataset    string
	Preset     string
	Seed       int64
	Simulation config.Simulation
	Chart      config.Chart
}

// History holds the per-tick columns of history.csv.
type History struct {
	Ticks   []int
	Columns []string
	Values  map[string][]float64
}

var frameHeader = []string{"id", "x", "y", "radius", "color", "active", "target", "group", "anchor_x", "anchor_y"}

// Save writes metadata.json, frame.csv (final point positions) and
// history.csv (alpha and every metric per tick) into a new run directory.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	name := info.Dataset
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", sanitize(name), now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Dataset:    info.Dataset,
		Preset:     info.Preset,
		Timestamp:  now,
		Seed:       info.Seed,
		Ticks:      result.Ticks,
		Settled:    result.Settled,
		Simulation: info.Simulation,
		Chart:      info.Chart,
		Metrics:    result.Metrics,
	}
	if result.Final != nil {
		meta.FinalAlpha = result.Final.Alpha
		meta.Points = len(result.Final.Points)
		meta.Targets = result.Final.Targets
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeFrame(filepath.Join(runDir, "frame.csv"), result.Final); err != nil {
		return "", err
	}
	if err := writeHistory(filepath.Join(runDir, "history.csv"), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFrame(path string, frame *sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(frameHeader); err != nil {
		return err
	}
	if frame != nil {
		for _, p := range frame.Points {
			row := []string{
				p.ID,
				formatFloat(p.X),
				formatFloat(p.Y),
				formatFloat(p.Radius),
				p.Color,
				strconv.FormatBool(p.Active),
				p.Target,
				p.Group,
				formatFloat(p.AnchorX),
				formatFloat(p.AnchorY),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func writeHistory(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		// The alpha column is always written from result.Alphas.
		if name != "alpha" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"tick", "alpha"}, names...)); err != nil {
		return err
	}
	for i, alpha := range result.Alphas {
		row := []string{strconv.Itoa(i + 1), formatFloat(alpha)}
		for _, name := range names {
			v := 0.0
			if series := result.Series[name]; i < len(series) {
				v = series[i]
			}
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrame rebuilds the final frame of a run from frame.csv and the
// targets recorded in its metadata.
func (s *Store) LoadFrame(runID string) (*sim.Frame, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	records, err := readCSV(filepath.Join(s.baseDir, runID, "frame.csv"))
	if err != nil {
		return nil, err
	}

	frame := &sim.Frame{
		Tick:    meta.Ticks,
		Alpha:   meta.FinalAlpha,
		Targets: meta.Targets,
		Points:  make([]sim.PointView, 0, len(records)),
	}
	for i, rec := range records {
		if len(rec) != len(frameHeader) {
			return nil, fmt.Errorf("frame.csv row %d: expected %d fields, got %d", i+2, len(frameHeader), len(rec))
		}
		var nums [5]float64
		for j, col := range []int{1, 2, 3, 8, 9} {
			if nums[j], err = strconv.ParseFloat(rec[col], 64); err != nil {
				return nil, fmt.Errorf("frame.csv row %d: %w", i+2, err)
			}
		}
		active, err := strconv.ParseBool(rec[5])
		if err != nil {
			return nil, fmt.Errorf("frame.csv row %d: %w", i+2, err)
		}
		frame.Points = append(frame.Points, sim.PointView{
			ID:      rec[0],
			X:       nums[0],
			Y:       nums[1],
			Radius:  nums[2],
			Color:   rec[4],
			Active:  active,
			Target:  rec[6],
			Group:   rec[7],
			AnchorX: nums[3],
			AnchorY: nums[4],
		})
	}
	return frame, nil
}

func (s *Store) LoadHistory(runID string) (*History, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "history.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("history.csv: %w", err)
	}
	if len(header) < 2 || header[0] != "tick" {
		return nil, fmt.Errorf("history.csv: unexpected header %v", header)
	}

	h := &History{
		Columns: header[1:],
		Values:  make(map[string][]float64, len(header)-1),
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("history.csv: %w", err)
	}
	for _, rec := range records {
		tick, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		h.Ticks = append(h.Ticks, tick)
		for j, name := range h.Columns {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				v = 0
			}
			h.Values[name] = append(h.Values[name], v)
		}
	}
	return h, nil
}

// readCSV returns every row after the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func sanitize(name string) string {
	name = filepath.Base(name)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	out := []rune(name)
	for i, r := range out {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			out[i] = '_'
		}
	}
	return string(out)
}
