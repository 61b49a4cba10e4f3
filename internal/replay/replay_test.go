package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyweave/internal/config"
	"github.com/dshills/keyweave/internal/config/loader"
	"github.com/dshills/keyweave/internal/engine"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/keyboard"
)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

const sample = `
# hold the mod-tap, then tap A
0    down 0,1
200  up   0,1   # release

300 encoder 0 cw
310 encoder 1 ccw
400 dip 1 on
400 dip 0 off
`

func TestParse(t *testing.T) {
	s, err := Parse("sample", strings.NewReader(sample))
	require.NoError(t, err)

	want := []Step{
		{At: 0, Kind: KeyDown, Pos: keyboard.Position{Row: 0, Col: 1}, Line: 3},
		{At: ms(200), Kind: KeyUp, Pos: keyboard.Position{Row: 0, Col: 1}, Line: 4},
		{At: ms(300), Kind: EncoderTurn, Index: 0, On: true, Line: 6},
		{At: ms(310), Kind: EncoderTurn, Index: 1, Line: 7},
		{At: ms(400), Kind: DipSwitch, Index: 1, On: true, Line: 8},
		{At: ms(400), Kind: DipSwitch, Index: 0, Line: 9},
	}
	assert.Equal(t, want, s.Steps)
	assert.Equal(t, ms(400), s.Duration())
	assert.Equal(t, "sample", s.Name)
}

func TestParse_Empty(t *testing.T) {
	s, err := Parse("empty", strings.NewReader("# nothing\n\n"))
	require.NoError(t, err)
	assert.Empty(t, s.Steps)
	assert.Equal(t, time.Duration(0), s.Duration())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"short", "10 down", 1, "too few fields"},
		{"bad time", "x down 0,0", 1, "invalid time"},
		{"negative time", "-5 down 0,0", 1, "invalid time"},
		{"unknown input", "10 press 0,0", 1, "unknown input"},
		{"no comma", "10 down 0", 1, "invalid position"},
		{"row too large", "10 down 300,0", 1, "invalid position"},
		{"virtual row", "10 down 255,0", 1, "invalid position"},
		{"extra field", "10 down 0,0 now", 1, "expected <ms> down|up"},
		{"bad encoder index", "10 encoder x cw", 1, "invalid index"},
		{"bad direction", "10 encoder 0 left", 1, "cw or ccw"},
		{"bad dip state", "10 dip 0 maybe", 1, "on or off"},
		{"backwards", "20 down 0,0\n\n10 up 0,0", 3, "time goes backwards"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test", strings.NewReader(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
			assert.Contains(t, pe.Msg, tt.msg)
			assert.Contains(t, err.Error(), fmt.Sprintf("test:%d", tt.line))
		})
	}
}

func TestStep_String(t *testing.T) {
	s, err := Parse("sample", strings.NewReader(sample))
	require.NoError(t, err)

	lines := make([]string, len(s.Steps))
	for i, step := range s.Steps {
		lines[i] = step.String()
	}
	assert.Equal(t, []string{
		"0 down 0,1",
		"200 up 0,1",
		"300 encoder 0 cw",
		"310 encoder 1 ccw",
		"400 dip 1 on",
		"400 dip 0 off",
	}, lines)

	again, err := Parse("again", strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	for i := range again.Steps {
		again.Steps[i].Line = s.Steps[i].Line
	}
	assert.Equal(t, s.Steps, again.Steps)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.txt")
	require.NoError(t, os.WriteFile(path, []byte("0 down 0,0\n5 up 0,0\n"), 0o644))

	s, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, s.Steps, 2)
	assert.Equal(t, path, s.Name)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

// callLog records every call a Target receives.
type callLog []string

func (c *callLog) Process(ev keyboard.Event) { *c = append(*c, "process "+ev.String()) }
func (c *callLog) Tick(now time.Duration) { *c = append(*c, "tick "+now.String()) }
func (c *callLog) Encoder(index int, cw bool) { *c = append(*c, fmt.Sprintf("encoder %d %t", index, cw)) }
func (c *callLog) DipSwitch(index int, on bool) { *c = append(*c, fmt.Sprintf("dip %d %t", index, on)) }

func TestDriver_Heartbeat(t *testing.T) {
	s, err := Parse("beat", strings.NewReader("0 down 0,0\n5 up 0,0\n5 encoder 1 ccw\n7 dip 0 on\n"))
	require.NoError(t, err)

	var calls callLog
	d := NewDriver(WithHeartbeat(ms(2)), WithSettle(ms(4)))
	res, err := d.Run(context.Background(), &calls, s)
	require.NoError(t, err)

	assert.Equal(t, callLog{
		"process down 0,0 @0s",
		"tick 2ms",
		"tick 4ms",
		"process up 0,0 @5ms",
		"encoder 1 false",
		"tick 6ms",
		"dip 0 true",
		"tick 8ms",
		"tick 10ms",
	}, calls)
	assert.Equal(t, Result{Steps: 4, Ticks: 5, End: ms(10)}, res)
}

func TestDriver_Canceled(t *testing.T) {
	s, err := Parse("cancel", strings.NewReader("0 down 0,0\n50 up 0,0\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls callLog
	res, err := NewDriver().Run(ctx, &calls, s)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Steps, "a step at time zero needs no tick")
	assert.Zero(t, res.Ticks)
}

func TestDriver_Paced(t *testing.T) {
	s, err := Parse("paced", strings.NewReader("0 down 0,0\n10 up 0,0\n"))
	require.NoError(t, err)

	var calls callLog
	start := time.Now()
	res, err := NewDriver(WithHeartbeat(ms(2)), WithSettle(0), WithPacing(true)).Run(context.Background(), &calls, s)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Ticks)
	assert.GreaterOrEqual(t, time.Since(start), ms(10))
}

const board = `
name: replay
matrix: {rows: 1, cols: 2}
layers:
  - name: base
    keys: [[KC_A, "MT(MOD_LSFT, KC_D)"]]
timing:
  tapping_term: 150
encoders:
  - {clockwise: KC_VOLU, counter_clockwise: KC_VOLD}
`

func TestDriver_Engine(t *testing.T) {
	kb, err := config.NewLoader(config.WithoutEnv()).Parse(loader.FormatYAML, []byte(board))
	require.NoError(t, err)

	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "hold resolves on the heartbeat",
			script: "0 down 0,1\n200 up 0,1\n300 down 0,0\n320 up 0,0",
			want:   []string{"mod-down LSFT", "mod-up LSFT", "key-down KC_A", "key-up KC_A"},
		},
		{
			name:   "tap",
			script: "0 down 0,1\n50 up 0,1",
			want:   []string{"key-down KC_D", "key-up KC_D"},
		},
		{
			name:   "encoder",
			script: "0 encoder 0 cw\n10 encoder 0 ccw",
			want:   []string{"key-down KC_VOLU", "key-up KC_VOLU", "key-down KC_VOLD", "key-up KC_VOLD"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &hid.Recorder{}
			e, err := engine.New(kb.Engine, rec)
			require.NoError(t, err)

			s, err := Parse(tt.name, strings.NewReader(tt.script))
			require.NoError(t, err)

			_, err = NewDriver().Run(context.Background(), e, s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Strings())
			assert.False(t, e.Pending())
		})
	}
}
