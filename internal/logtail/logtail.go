package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Filter keeps lines at or above MinLevel. Lines without a recognizable
// level always pass.
type Filter struct {
	MinLevel logrus.Level
}

// AllLevels passes every line.
var AllLevels = Filter{MinLevel: logrus.TraceLevel}

var levelPattern = regexp.MustCompile(`(?:^|\s)level=(\w+)|"level":"(\w+)"`)

// LineLevel extracts the logrus level from a text or JSON formatted line.
func LineLevel(line string) (logrus.Level, bool) {
	m := levelPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	name := m[1]
	if name == "" {
		name = m[2]
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return 0, false
	}
	return level, true
}

// Match reports whether line passes the filter. Lower logrus levels are
// more severe.
func (f Filter) Match(line string) bool {
	level, ok := LineLevel(line)
	return !ok || level <= f.MinLevel
}

// Read returns at most maxLines matching lines from the end of the file at
// path. A missing file yields no lines.
func Read(path string, maxLines int, filter Filter) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	var tail window
	tail.max = maxLines
	if err := tail.consume(file, filter); err != nil {
		return nil, err
	}
	return tail.lines(), nil
}

// Follower re-reads a growing log file incrementally. Only bytes appended
// since the previous Poll are scanned; a shrinking file is read again from
// the start.
type Follower struct {
	path   string
	filter Filter

	mu     sync.Mutex
	offset int64
	tail   window
}

// NewFollower tracks path and keeps the last maxLines matching lines.
func NewFollower(path string, maxLines int, filter Filter) *Follower {
	if maxLines <= 0 {
		maxLines = 200
	}
	return &Follower{path: path, filter: filter, tail: window{max: maxLines}}
}

// Path returns the followed file.
func (f *Follower) Path() string { return f.path }

// SetFilter changes the filter. Already buffered lines are dropped and the
// file is rescanned on the next Poll.
func (f *Follower) SetFilter(filter Filter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	f.offset = 0
	f.tail.reset()
}

// Poll reads appended data and returns the current window.
func (f *Follower) Poll() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.offset = 0
			f.tail.reset()
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < f.offset {
		f.offset = 0
		f.tail.reset()
	}
	if info.Size() == f.offset {
		return f.tail.lines(), nil
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log: %w", err)
	}

	// Only complete lines advance the offset.
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read log: %w", err)
		}
		f.offset += int64(len(line))
		text := strings.TrimRight(line, "\r\n")
		if f.filter.Match(text) {
			f.tail.push(text)
		}
	}
	return f.tail.lines(), nil
}

// window is a fixed-size ring of the most recent lines.
type window struct {
	max   int
	buf   []string
	start int
}

func (w *window) push(line string) {
	if len(w.buf) < w.max {
		w.buf = append(w.buf, line)
		return
	}
	w.buf[w.start] = line
	w.start = (w.start + 1) % w.max
}

func (w *window) reset() {
	w.buf = w.buf[:0]
	w.start = 0
}

func (w *window) lines() []string {
	out := make([]string, 0, len(w.buf))
	out = append(out, w.buf[w.start:]...)
	return append(out, w.buf[:w.start]...)
}

func (w *window) consume(r io.Reader, filter Filter) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); filter.Match(line) {
			w.push(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	return nil
}
