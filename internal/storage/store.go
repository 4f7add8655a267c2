package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/engine"
	"github.com/san-kum/lockbox/internal/fixed"
	"github.com/san-kum/lockbox/internal/logger"
)

var log = logger.New("storage")

var ErrBadTrace = errors.New("storage: malformed trace")

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
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
	ID        string             `json:"id"`
	Plant     string             `json:"plant"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Ticks     int                `json:"ticks"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Row is one line of a stored trace.
type Row struct {
	In  engine.Inputs
	Out engine.Outputs
}

var traceHeader = []string{
	"tick", "in1", "in2", "mon1", "mon2", "mon3", "mon4",
	"raw1", "raw2", "out1", "out2", "rail1", "rail2",
	"locked11", "locked12", "locked21", "locked22",
}

// Save writes the run's metadata and, if the result was recorded, its trace.
func (s *Store) Save(cfg *config.Config, result *engine.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Plant, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Plant:     cfg.Plant,
		Timestamp: now,
		Seed:      cfg.Seed,
		Ticks:     result.TicksRun,
		Config:    cfg,
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteTrace(csvFile, result); err != nil {
		return "", err
	}
	log.Debug("saved %s (%d rows)", runID, len(result.Outputs))
	return runID, nil
}

// WriteTrace writes the recorded ticks of result as CSV.
func WriteTrace(f io.Writer, result *engine.Result) error {
	w := csv.NewWriter(f)
	if err := w.Write(traceHeader); err != nil {
		return err
	}
	for i := range result.Outputs {
		if err := w.Write(formatRow(result.Inputs[i], result.Outputs[i])); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatRow(in engine.Inputs, out engine.Outputs) []string {
	row := make([]string, 0, len(traceHeader))
	row = append(row, strconv.FormatUint(out.Tick, 10))
	for _, v := range in.Analog {
		row = append(row, strconv.Itoa(int(v)))
	}
	for _, v := range in.Relock {
		row = append(row, strconv.Itoa(int(v)))
	}
	for _, v := range out.Raw {
		row = append(row, strconv.Itoa(int(v)))
	}
	for _, v := range out.Out {
		row = append(row, strconv.Itoa(int(v)))
	}
	for _, r := range out.Rail {
		row = append(row, strconv.Itoa(railCode(r)))
	}
	for _, l := range out.Locked {
		if l {
			row = append(row, "1")
		} else {
			row = append(row, "0")
		}
	}
	return row
}

func railCode(r control.RailStatus) int {
	switch {
	case r.Upper:
		return 1
	case r.Lower:
		return -1
	}
	return 0
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
			log.Debug("skipping %s: %v", entry.Name(), err)
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]Row, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(traceHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTrace, err)
	}
	if len(records) < 2 {
		return []Row{}, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadTrace, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(record []string) (Row, error) {
	var row Row
	tick, err := strconv.ParseUint(record[0], 10, 64)
	if err != nil {
		return row, err
	}
	row.Out.Tick = tick

	vals := make([]int, len(record)-1)
	for i, field := range record[1:] {
		if vals[i], err = strconv.Atoi(field); err != nil {
			return row, err
		}
	}

	samples := vals[:10]
	for _, v := range samples {
		if !fixed.InRange(int64(v)) {
			return row, fmt.Errorf("sample %d out of range", v)
		}
	}
	for i := range row.In.Analog {
		row.In.Analog[i] = fixed.Sample(samples[i])
	}
	for i := range row.In.Relock {
		row.In.Relock[i] = fixed.Sample(samples[2+i])
	}
	for i := range row.Out.Raw {
		row.Out.Raw[i] = fixed.Sample(samples[6+i])
		row.Out.Out[i] = fixed.Sample(samples[8+i])
	}
	for i := range row.Out.Rail {
		row.Out.Rail[i] = control.RailStatus{Lower: vals[10+i] < 0, Upper: vals[10+i] > 0}
	}
	for i := range row.Out.Locked {
		row.Out.Locked[i] = vals[12+i] != 0
	}
	return row, nil
}
