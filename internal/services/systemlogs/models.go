package systemlogs

import "time"

// Level codes as arbor writes them in text output
const (
	LevelDebug = "DBG"
	LevelInfo  = "INF"
	LevelWarn  = "WRN"
	LevelError = "ERR"
	LevelFatal = "FTL"
)

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

// Entry is one parsed line of the application log
type Entry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// File describes a log file, including rotated backups
type File struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Tail is the response of a log read
type Tail struct {
	File     string  `json:"file"`
	MinLevel string  `json:"min_level"`
	Entries  []Entry `json:"entries"`
	Scanned  int     `json:"scanned"`
}
