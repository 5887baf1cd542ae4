// -----------------------------------------------------------------------
// Package systemlogs reads the application's own log files for the
// admin area
// -----------------------------------------------------------------------

package systemlogs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
)

const (
	DefaultLimit = 200
	MaxLimit     = 2000
)

// ErrInvalidFile is returned for names outside the logs directory or not ending in .log
var ErrInvalidFile = errors.New("invalid log file name")

// Service reads log files from one directory
type Service struct {
	dir         string
	defaultFile string
	logger      arbor.ILogger
}

// NewService creates a reader over dir. defaultFile is used when Read gets an empty name.
func NewService(dir, defaultFile string, logger arbor.ILogger) *Service {
	return &Service{
		dir:         dir,
		defaultFile: defaultFile,
		logger:      logger,
	}
}

// Files lists the .log files in the directory, newest first.
// A missing directory means file logging is off and yields an empty list.
func (s *Service) Files() ([]File, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []File{}, nil
		}
		return nil, fmt.Errorf("failed to read logs directory: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: entry.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Read returns the last limit entries at or above minLevel
func (s *Service) Read(name string, limit int, minLevel string) (*Tail, error) {
	if name == "" {
		name = s.defaultFile
	}
	if filepath.Base(name) != name || !strings.HasSuffix(name, ".log") {
		return nil, ErrInvalidFile
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	minLevel = NormalizeLevel(minLevel)

	file, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	// Ring buffer over the matching lines; only the tail survives
	ring := make([]Entry, limit)
	next, kept, scanned := 0, 0, 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		scanned++

		entry := ParseLine(line)
		if levelRank[entry.Level] < levelRank[minLevel] {
			continue
		}
		ring[next] = entry
		next = (next + 1) % limit
		kept++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	tail := &Tail{File: name, MinLevel: minLevel, Scanned: scanned}
	if kept < limit {
		tail.Entries = append([]Entry{}, ring[:kept]...)
	} else {
		tail.Entries = append(append([]Entry{}, ring[next:]...), ring[:next]...)
	}
	return tail, nil
}

// ParseLine understands arbor's text form "15:04:05 INF > message" and its
// JSON form. Anything else is kept whole as an INF entry.
func ParseLine(line string) Entry {
	if strings.HasPrefix(line, "{") {
		var fields map[string]interface{}
		if err := json.Unmarshal([]byte(line), &fields); err == nil {
			entry := Entry{Level: LevelInfo}
			if lvl, ok := fields["level"].(string); ok {
				entry.Level = NormalizeLevel(lvl)
			}
			if msg, ok := fields["message"].(string); ok {
				entry.Message = msg
			}
			if ts, ok := fields["time"].(string); ok {
				entry.Time = ts
			}
			return entry
		}
	}

	if ts, rest, ok := strings.Cut(line, " "); ok {
		if lvl, msg, ok := strings.Cut(strings.TrimLeft(rest, " "), " > "); ok && len(strings.TrimSpace(lvl)) <= 5 {
			return Entry{
				Time:    ts,
				Level:   NormalizeLevel(strings.TrimSpace(lvl)),
				Message: strings.TrimSpace(msg),
			}
		}
	}

	return Entry{Level: LevelInfo, Message: line}
}

// NormalizeLevel maps level names in either spelling to arbor's three-letter codes.
// Unknown or empty names become DBG, which matches everything as a filter.
func NormalizeLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "INF", "INFO":
		return LevelInfo
	case "WRN", "WARN", "WARNING":
		return LevelWarn
	case "ERR", "ERROR":
		return LevelError
	case "FTL", "FATAL", "PANIC", "PNC":
		return LevelFatal
	default:
		return LevelDebug
	}
}
