package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/engine"
	"github.com/san-kum/lockbox/internal/fixed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *engine.Result {
	res := &engine.Result{Metrics: map[string]float64{"control_effort": 12.5}}
	for i := 0; i < 3; i++ {
		in := engine.Inputs{
			Analog: [2]fixed.Sample{fixed.Sample(i), -8192},
			Relock: [4]fixed.Sample{1, 2, 3, fixed.Sample(8191 - i)},
		}
		out := engine.Outputs{
			Raw:  [2]fixed.Sample{fixed.Sample(10 * i), 5},
			Out:  [2]fixed.Sample{fixed.Sample(-10 * i), 4},
			Tick: uint64(i + 1),
		}
		out.Rail[0].Upper = i == 1
		out.Rail[1].Lower = i == 2
		out.Locked[control.PID22] = i > 0
		res.Inputs = append(res.Inputs, in)
		res.Outputs = append(res.Outputs, out)
		res.TicksRun++
	}
	return res
}

func TestSaveLoad(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	cfg := config.GetPreset("lock")
	res := sampleResult()
	id, err := s.Save(cfg, res)
	require.NoError(t, err)

	meta, err := s.Load(id)
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
	assert.Equal(t, "lag", meta.Plant)
	assert.Equal(t, 3, meta.Ticks)
	assert.Equal(t, 12.5, meta.Metrics["control_effort"])
	require.NotNil(t, meta.Config)
	assert.Equal(t, cfg.Channels["pid11"].Setpoint, meta.Config.Channels["pid11"].Setpoint)

	rows, err := s.LoadTrace(id)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, res.Inputs[i], row.In, "row %d", i)
		want := res.Outputs[i]
		want.Cleared = [control.NumChannels]bool{}
		assert.Equal(t, want, row.Out, "row %d", i)
	}
}

func TestList(t *testing.T) {
	s := New(t.TempDir())
	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = s.Save(config.GetPreset("lock"), sampleResult())
	require.NoError(t, err)
	_, err = s.Save(config.GetPreset("relock"), sampleResult())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(s.baseDir, "junk"), 0755))

	runs, err = s.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "lag", runs[0].Plant)
	assert.Equal(t, "cavity", runs[1].Plant)
}

func TestListMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLoadTraceRejectsGarbage(t *testing.T) {
	s := New(t.TempDir())
	dir := filepath.Join(s.baseDir, "bad")
	require.NoError(t, os.MkdirAll(dir, 0755))

	var buf bytes.Buffer
	require.NoError(t, WriteTrace(&buf, &engine.Result{}))
	buf.WriteString("1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,x\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, traceFile), buf.Bytes(), 0644))

	_, err := s.LoadTrace("bad")
	assert.ErrorIs(t, err, ErrBadTrace)

	buf.Reset()
	require.NoError(t, WriteTrace(&buf, &engine.Result{}))
	buf.WriteString("1,9000,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, traceFile), buf.Bytes(), 0644))
	_, err = s.LoadTrace("bad")
	assert.ErrorIs(t, err, ErrBadTrace)
}

func TestWriteTraceHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrace(&buf, &engine.Result{}))
	assert.Equal(t, "tick,in1,in2,mon1,mon2,mon3,mon4,raw1,raw2,out1,out2,rail1,rail2,locked11,locked12,locked21,locked22\n", buf.String())
}
