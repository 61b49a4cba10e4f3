// Package replay drives a keyboard engine from a recorded event script.
//
// A script has one input per line:
//
//	<ms> down|up <row>,<col>
//	<ms> encoder <index> cw|ccw
//	<ms> dip <index> on|off
//
// Times are milliseconds from the start of the run and never decrease.
// Blank lines and text after '#' are ignored.
package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/keyweave/internal/keyboard"
)

// ErrSyntax is wrapped by every ParseError.
var ErrSyntax = errors.New("syntax error")

// Kind identifies a scripted input.
type Kind uint8

const (
	KeyDown Kind = iota
	KeyUp
	EncoderTurn
	DipSwitch
)

// String returns the script keyword for k.
func (k Kind) String() string {
	switch k {
	case KeyDown:
		return "down"
	case KeyUp:
		return "up"
	case EncoderTurn:
		return "encoder"
	case DipSwitch:
		return "dip"
	default:
		return "unknown"
	}
}

// Step is one scripted input.
type Step struct {
	At   time.Duration
	Kind Kind

	// Pos is set for KeyDown and KeyUp.
	Pos keyboard.Position

	// Index and On are set for EncoderTurn (On is clockwise) and
	// DipSwitch (On is active).
	Index int
	On    bool

	// Line is the 1-based source line.
	Line int
}

// String formats s as a script line.
func (s Step) String() string {
	ms := s.At.Milliseconds()
	switch s.Kind {
	case KeyDown, KeyUp:
		return fmt.Sprintf("%d %s %s", ms, s.Kind, s.Pos)
	case EncoderTurn:
		dir := "ccw"
		if s.On {
			dir = "cw"
		}
		return fmt.Sprintf("%d encoder %d %s", ms, s.Index, dir)
	default:
		state := "off"
		if s.On {
			state = "on"
		}
		return fmt.Sprintf("%d dip %d %s", ms, s.Index, state)
	}
}

// Script is a parsed event script.
type Script struct {
	Name  string
	Steps []Step
}

// Duration returns the time of the last step.
func (s *Script) Duration() time.Duration {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].At
}

// ParseError reports a malformed script line.
type ParseError struct {
	Name string
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	prefix := "line " + strconv.Itoa(e.Line)
	if e.Name != "" {
		prefix = e.Name + ":" + strconv.Itoa(e.Line)
	}
	return fmt.Sprintf("%s: %s: %q", prefix, e.Msg, e.Text)
}

func (e *ParseError) Unwrap() error {
	return ErrSyntax
}

// ParseFile reads and parses the script at path.
func ParseFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(path, f)
}

// Parse reads a script from r. name is used in error messages.
func Parse(name string, r io.Reader) (*Script, error) {
	s := &Script{Name: name}
	sc := bufio.NewScanner(r)

	var last time.Duration
	for n := 1; sc.Scan(); n++ {
		text := sc.Text()
		line, _, _ := strings.Cut(text, "#")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		step, msg := parseStep(fields)
		if msg == "" && step.At < last {
			msg = "time goes backwards"
		}
		if msg != "" {
			return nil, &ParseError{Name: name, Line: n, Text: strings.TrimSpace(text), Msg: msg}
		}
		step.Line = n
		last = step.At
		s.Steps = append(s.Steps, step)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return s, nil
}

// parseStep returns the step for fields, or a message describing why the
// line is invalid.
func parseStep(fields []string) (Step, string) {
	var step Step
	if len(fields) < 3 {
		return step, "too few fields"
	}

	ms, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return step, "invalid time"
	}
	step.At = time.Duration(ms) * time.Millisecond

	switch fields[1] {
	case "down", "up":
		if len(fields) != 3 {
			return step, "expected <ms> down|up <row>,<col>"
		}
		pos, ok := parsePosition(fields[2])
		if !ok {
			return step, "invalid position"
		}
		step.Kind = KeyUp
		if fields[1] == "down" {
			step.Kind = KeyDown
		}
		step.Pos = pos
	case "encoder":
		if len(fields) != 4 {
			return step, "expected <ms> encoder <index> cw|ccw"
		}
		step.Kind = EncoderTurn
		switch fields[3] {
		case "cw":
			step.On = true
		case "ccw":
		default:
			return step, "encoder direction must be cw or ccw"
		}
	case "dip":
		if len(fields) != 4 {
			return step, "expected <ms> dip <index> on|off"
		}
		step.Kind = DipSwitch
		switch fields[3] {
		case "on":
			step.On = true
		case "off":
		default:
			return step, "dip state must be on or off"
		}
	default:
		return step, "unknown input " + strconv.Quote(fields[1])
	}

	if step.Kind == EncoderTurn || step.Kind == DipSwitch {
		idx, err := strconv.ParseUint(fields[2], 10, 8)
		if err != nil {
			return step, "invalid index"
		}
		step.Index = int(idx)
	}
	return step, ""
}

func parsePosition(s string) (keyboard.Position, bool) {
	row, col, ok := strings.Cut(s, ",")
	if !ok {
		return keyboard.Position{}, false
	}
	r, err := strconv.ParseUint(row, 10, 8)
	if err != nil || uint8(r) == keyboard.VirtualRow {
		return keyboard.Position{}, false
	}
	c, err := strconv.ParseUint(col, 10, 8)
	if err != nil {
		return keyboard.Position{}, false
	}
	return keyboard.Position{Row: uint8(r), Col: uint8(c)}, true
}
