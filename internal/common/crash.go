package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

var crashDir = "logs"

// InstallCrashHandler sets where crash reports go. An empty dir keeps the default.
func InstallCrashHandler(dir string) {
	if dir != "" {
		crashDir = dir
	}
	if err := os.MkdirAll(crashDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create crash directory %s: %v\n", crashDir, err)
	}
}

// WriteCrashReport formats a panic for a human reading the file afterwards
func WriteCrashReport(w io.Writer, at time.Time, panicVal interface{}, stack string) {
	fmt.Fprintf(w, "serendib crashed at %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(w, "version:    %s\n", CurrentVersion())
	fmt.Fprintf(w, "platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "goroutines: %d\n\n", runtime.NumGoroutine())
	fmt.Fprintf(w, "panic: %v\n\n%s\n", panicVal, stack)
}

// RecoverWithCrashFile is deferred in main. It saves a crash report and exits non-zero.
func RecoverWithCrashFile() {
	r := recover()
	if r == nil {
		return
	}

	now := time.Now()
	path := filepath.Join(crashDir, "crash-"+now.Format("20060102-150405")+".log")
	f, err := os.Create(path)
	if err != nil {
		WriteCrashReport(os.Stderr, now, r, GetStackTrace())
		os.Exit(2)
	}
	WriteCrashReport(f, now, r, GetStackTrace())
	f.Close()

	fmt.Fprintf(os.Stderr, "fatal panic: %v (report: %s)\n", r, path)
	os.Exit(2)
}
