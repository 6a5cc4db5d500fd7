/*
Copyright © 2019 the Beaker authors.
This file is part of Beaker.

Beaker is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Beaker is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Beaker.  If not, see <http://www.gnu.org/licenses/>.
*/

package beaker

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level is a category of diagnostic output.
type Level int

// Diagnostic output levels.
const (
	Silent Level = iota
	Terse
	Verbose
	Debug
	DebugBeaker
	DebugDatabase
	DebugMineralKinetics
	DebugIonExchange
	DebugNewtonSolver
	DebugDriver
	Error
)

var levelNames = map[string]Level{
	"silent":                 Silent,
	"terse":                  Terse,
	"verbose":                Verbose,
	"debug":                  Debug,
	"debug_beaker":           DebugBeaker,
	"debug_database":         DebugDatabase,
	"debug_mineral_kinetics": DebugMineralKinetics,
	"debug_ion_exchange":     DebugIonExchange,
	"debug_newton_solver":    DebugNewtonSolver,
	"debug_driver":           DebugDriver,
	"error":                  Error,
}

func (l Level) String() string {
	for n, ll := range levelNames {
		if ll == l {
			return n
		}
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// LevelNames returns the valid verbosity level names.
func LevelNames() []string {
	o := make([]string, 0, len(levelNames))
	for n := range levelNames {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// Output is a leveled diagnostic sink. It is created once per process and
// shared by every Beaker. Messages are written through a logrus Logger,
// and may be collected in a Buffer and written together so that output
// from concurrent solves does not interleave.
//
// A nil *Output is valid and discards everything.
type Output struct {
	mu     sync.Mutex
	log    *logrus.Logger
	w      io.Writer
	levels map[Level]bool
}

// NewOutput returns an Output writing to w with only the terse and error
// levels enabled.
func NewOutput(w io.Writer) *Output {
	log := logrus.New()
	log.Out = w
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
		DisableQuote:    true,
	})
	return &Output{
		log:    log,
		w:      w,
		levels: map[Level]bool{Terse: true, Error: true},
	}
}

// AddLevel enables the named verbosity level. Enabling "silent" disables
// all output, including errors.
func (o *Output) AddLevel(name string) error {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("beaker: invalid verbosity level '%s'; valid options are %v", name, LevelNames())
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if l == Silent {
		o.levels = map[Level]bool{Silent: true}
		return nil
	}
	delete(o.levels, Silent)
	o.levels[l] = true
	return nil
}

// SetLevels replaces the enabled levels with the named ones.
func (o *Output) SetLevels(names ...string) error {
	o.mu.Lock()
	o.levels = make(map[Level]bool)
	o.mu.Unlock()
	for _, n := range names {
		if err := o.AddLevel(n); err != nil {
			return err
		}
	}
	return nil
}

// Enabled reports whether messages at level l are written. The debug
// level implies verbose, and verbose implies terse. Errors are written
// unless output is silent.
func (o *Output) Enabled(l Level) bool {
	if o == nil {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.levels[Silent] {
		return false
	}
	switch l {
	case Silent:
		return false
	case Error:
		return true
	case Terse:
		return o.levels[Terse] || o.levels[Verbose] || o.levels[Debug]
	case Verbose:
		return o.levels[Verbose] || o.levels[Debug]
	}
	return o.levels[l]
}

// Printf writes a message at level l.
func (o *Output) Printf(l Level, format string, args ...interface{}) {
	if !o.Enabled(l) {
		return
	}
	o.mu.Lock()
	o.write(l, fmt.Sprintf(format, args...))
	o.mu.Unlock()
}

// Logf returns a function that writes messages at level l, or nil if the
// level is disabled.
func (o *Output) Logf(l Level) func(format string, args ...interface{}) {
	if !o.Enabled(l) {
		return nil
	}
	return func(format string, args ...interface{}) { o.Printf(l, format, args...) }
}

// Writer returns a writer whose lines are written at level l. If l is
// disabled the writer discards its input.
func (o *Output) Writer(l Level) io.Writer {
	if !o.Enabled(l) {
		return io.Discard
	}
	return &levelWriter{o: o, l: l}
}

// write must be called with o.mu held.
func (o *Output) write(l Level, msg string) {
	e := o.log.WithField("verbosity", l.String())
	for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
		switch {
		case l == Error:
			e.Error(line)
		case l >= Debug:
			e.Debug(line)
		default:
			e.Info(line)
		}
	}
}

// Buffer returns a message buffer for a single solver call.
func (o *Output) Buffer() *Buffer {
	if o == nil {
		return nil
	}
	return &Buffer{o: o}
}

// Close closes the underlying writer unless it is standard output or
// standard error.
func (o *Output) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.w == os.Stdout || o.w == os.Stderr {
		return nil
	}
	if c, ok := o.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// levelWriter holds partial lines until their newline is written.
type levelWriter struct {
	o       *Output
	l       Level
	pending []byte
}

func (w *levelWriter) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	i := bytes.LastIndexByte(w.pending, '\n')
	if i < 0 {
		return len(p), nil
	}
	w.o.mu.Lock()
	w.o.write(w.l, string(w.pending[:i+1]))
	w.o.mu.Unlock()
	w.pending = append(w.pending[:0], w.pending[i+1:]...)
	return len(p), nil
}

// Buffer collects the messages of one solver call. Messages are written
// to the Output, in order and without interleaving, when Flush is called.
// A nil *Buffer discards everything.
type Buffer struct {
	o      *Output
	levels []Level
	msgs   []string
}

// Enabled reports whether messages at level l are kept.
func (b *Buffer) Enabled(l Level) bool {
	return b != nil && b.o.Enabled(l)
}

// Printf adds a message at level l.
func (b *Buffer) Printf(l Level, format string, args ...interface{}) {
	if !b.Enabled(l) {
		return
	}
	b.levels = append(b.levels, l)
	b.msgs = append(b.msgs, fmt.Sprintf(format, args...))
}

// Logf returns a function that adds messages at level l, or nil if the
// level is disabled.
func (b *Buffer) Logf(l Level) func(format string, args ...interface{}) {
	if !b.Enabled(l) {
		return nil
	}
	return func(format string, args ...interface{}) { b.Printf(l, format, args...) }
}

// Display calls f with a writer whose content is added at level l.
func (b *Buffer) Display(l Level, f func(w io.Writer)) {
	if !b.Enabled(l) {
		return
	}
	var buf bytes.Buffer
	f(&buf)
	b.Printf(l, "%s", buf.String())
}

// Flush writes the buffered messages and empties the buffer.
func (b *Buffer) Flush() {
	if b == nil || len(b.msgs) == 0 {
		return
	}
	b.o.mu.Lock()
	for i, msg := range b.msgs {
		b.o.write(b.levels[i], msg)
	}
	b.o.mu.Unlock()
	b.levels = b.levels[:0]
	b.msgs = b.msgs[:0]
}
