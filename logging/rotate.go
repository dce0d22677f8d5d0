package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// logFilePrefix names every file the rotating file owns
const logFilePrefix = "onestopmed-"

// numberedFileRegex matches overflow files such as onestopmed-2025-W10_02.log
var numberedFileRegex = regexp.MustCompile(`^` + logFilePrefix + `(\d{4}-W\d{2})_(\d{2})\.log$`)

// weekKey returns the ISO week of t as YYYY-Www
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// rotatingFile appends to one file per ISO week. A week's file is reused
// across restarts; when it reaches maxSize, writes move on to numbered
// siblings. Files older than the retention period are pruned on open and on
// every week change.
type rotatingFile struct {
	dir       string
	retention time.Duration
	maxSize   int64 // 0 disables size rotation
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	seq  int // 0 for the base file
	size int64
}

func openRotatingFile(dir string, retentionWeeks int, maxSize int64) (*rotatingFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rf := &rotatingFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
	}

	rf.mu.Lock()
	defer rf.mu.Unlock()
	if err := rf.openWeek(weekKey(rf.now())); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *rotatingFile) name(week string, seq int) string {
	if seq == 0 {
		return logFilePrefix + week + ".log"
	}
	return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, seq)
}

// lastSeq returns the highest numbered file of week, 0 if there is none
func (rf *rotatingFile) lastSeq(week string) int {
	entries, err := os.ReadDir(rf.dir)
	if err != nil {
		return 0
	}

	last := 0
	for _, e := range entries {
		m := numberedFileRegex.FindStringSubmatch(e.Name())
		if m == nil || m[1] != week {
			continue
		}
		if n, _ := strconv.Atoi(m[2]); n > last {
			last = n
		}
	}
	return last
}

// openWeek continues the newest file of week. Caller holds mu.
func (rf *rotatingFile) openWeek(week string) error {
	if rf.week != week {
		rf.prune()
	}
	return rf.open(week, rf.lastSeq(week))
}

// open switches to the given file, skipping ahead while files are full. Caller holds mu.
func (rf *rotatingFile) open(week string, seq int) error {
	for {
		path := filepath.Join(rf.dir, rf.name(week, seq))
		info, err := os.Stat(path)
		if err != nil || rf.maxSize <= 0 || info.Size() < rf.maxSize {
			break
		}
		seq++
	}

	path := filepath.Join(rf.dir, rf.name(week, seq))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	if rf.file != nil {
		_ = rf.file.Close()
	}
	rf.file, rf.week, rf.seq, rf.size = file, week, seq, size
	return nil
}

// Write appends p, rotating first on a week change or when p would overflow the current file
func (rf *rotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, fmt.Errorf("log file is closed")
	}

	if week := weekKey(rf.now()); week != rf.week {
		if err := rf.openWeek(week); err != nil {
			return 0, err
		}
	} else if rf.maxSize > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.maxSize {
		if err := rf.open(week, rf.seq+1); err != nil {
			return 0, err
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// prune removes owned files last modified before the retention window. Caller holds mu.
func (rf *rotatingFile) prune() int {
	if rf.retention <= 0 {
		return 0
	}

	entries, err := os.ReadDir(rf.dir)
	if err != nil {
		return 0
	}

	cutoff := rf.now().Add(-rf.retention)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(rf.dir, name)) == nil {
			removed++
		}
	}
	return removed
}

// Path returns the file currently written to
func (rf *rotatingFile) Path() string {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	return filepath.Join(rf.dir, rf.name(rf.week, rf.seq))
}

func (rf *rotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}
