package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const defaultPollInterval = 250 * time.Millisecond

// Matcher decides whether a line is shown. A nil Matcher shows every line.
type Matcher func(line string) bool

const shortIDLen = 8

// ConnFilter matches lines whose connection id is id. Console lines carry
// only the 8-character prefix, so a full id also matches its prefix, and an
// 8-character id matches full ids starting with it.
func ConnFilter(id string) Matcher {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return func(line string) bool {
		value := lineConnID(line)
		switch {
		case value == "":
			return false
		case value == id:
			return true
		case len(id) > shortIDLen && len(value) == shortIDLen:
			return value == id[:shortIDLen]
		case len(id) == shortIDLen:
			return strings.HasPrefix(value, id)
		}
		return false
	}
}

// lineConnID extracts the conn_id of a JSON line or the "conn <id>" field of
// a console line.
func lineConnID(line string) string {
	const jsonKey = `"conn_id":"`
	if i := strings.Index(line, jsonKey); i >= 0 {
		rest := line[i+len(jsonKey):]
		if j := strings.IndexByte(rest, '"'); j >= 0 {
			return rest[:j]
		}
		return ""
	}
	const consoleKey = " conn "
	padded := " " + line
	i := strings.Index(padded, consoleKey)
	if i < 0 {
		return ""
	}
	rest := padded[i+len(consoleKey):]
	if j := strings.IndexByte(rest, ' '); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func (m Matcher) keep(line string) bool {
	return m == nil || m(line)
}

// Last returns up to limit trailing matching lines of path and the offset just
// past the last complete line. A missing file yields no lines and offset 0.
func Last(path string, limit int, match Matcher) ([]string, int64, error) {
	if limit <= 0 {
		offset, err := scanLines(path, 0, func(string) {})
		return nil, offset, err
	}

	ring := make([]string, limit)
	count := 0
	idx := 0
	offset, err := scanLines(path, 0, func(line string) {
		if !match.keep(line) {
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Follow calls emit for each matching line appended to path after offset
// until ctx is done or emit fails. poll <= 0 uses a 250ms interval.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, match Matcher, emit func(line string) error) error {
	if poll <= 0 {
		poll = defaultPollInterval
	}

	var current os.FileInfo
	if info, err := os.Stat(path); err == nil {
		current = info
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			current = nil
		case err != nil:
			return fmt.Errorf("stat log file: %w", err)
		default:
			if current == nil || !os.SameFile(current, info) || info.Size() < offset {
				offset = 0
			}
			current = info

			var emitErr error
			next, err := scanLines(path, offset, func(line string) {
				if emitErr == nil && match.keep(line) {
					emitErr = emit(line)
				}
			})
			if err != nil {
				return err
			}
			if emitErr != nil {
				return emitErr
			}
			offset = next
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// scanLines calls fn for every complete line at or after offset and returns
// the offset just past the last one.
func scanLines(path string, offset int64, fn func(line string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return offset, fmt.Errorf("log path %q is a directory", path)
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		fn(strings.TrimRight(line, "\r\n"))
	}
}
