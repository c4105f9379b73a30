// Package journal records the pairing and ranging history of a run as
// bracketed rows, in memory and optionally in an append-only file, and
// exports it as text or CSV.
package journal

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	// Header is the first row of every export
	Header = "[Time][Demo][Event][DevName][DevMac][Distance][Azimuth][Elevation]"

	timeLayout   = "2006/01/02 15:04:05.000"
	exportLayout = "20060102"
	fileBaseName = "uwbconnect"

	DefaultMaxEntries = 10000
	DefaultDemoName   = "Default"
)

// Event names a journal row
type Event string

const (
	DemoStart                  Event = "DEMO_START"
	DemoStop                   Event = "DEMO_STOP"
	DemoFinished               Event = "DEMO_FINISHED"
	BLEScanStart               Event = "BLE_SCAN_START"
	BLEScanStop                Event = "BLE_SCAN_STOP"
	BLEDevScanned              Event = "BLE_DEV_SCANNED"
	BLEDevConnecting           Event = "BLE_DEV_CONNECTING"
	BLEDevConnected            Event = "BLE_DEV_CONNECTED"
	BLEDevDisconnected         Event = "BLE_DEV_DISCONNECTED"
	UWBRangingStart            Event = "UWB_RANGING_START"
	UWBRangingResult           Event = "UWB_RANGING_RESULT"
	UWBRangingError            Event = "UWB_RANGING_ERROR"
	UWBRangingPeerDisconnected Event = "UWB_RANGING_PEER_DISCONNECTED"
	UWBRangingStop             Event = "UWB_RANGING_STOP"
)

// Format selects an export encoding
type Format string

const (
	Txt Format = "txt"
	CSV Format = "csv"
)

// ParseFormat accepts "txt" or "csv"
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Txt, CSV:
		return f, nil
	}
	return "", errors.Errorf("unknown journal format %q", s)
}

// Options configures a Journal
type Options struct {
	DemoName   string
	MaxEntries int
	// Path, when set, also appends every row to that file
	Path    string
	Enabled bool
	Now     func() time.Time
}

// Journal is safe for concurrent use
type Journal struct {
	mutex   sync.Mutex
	opts    Options
	rows    []string
	start   int
	file    *os.File
	enabled bool
}

// New returns a journal; it opens Options.Path for appending when set
func New(opts Options) (*Journal, error) {
	if opts.DemoName == "" {
		opts.DemoName = DefaultDemoName
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	j := &Journal{opts: opts, enabled: opts.Enabled}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, errors.Wrap(err, "journal dir")
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "journal open")
		}
		j.file = f
	}
	return j, nil
}

// NewMemory returns an enabled, in-memory only journal
func NewMemory() *Journal {
	j, _ := New(Options{Enabled: true})
	return j
}

// SetEnabled turns recording on or off
func (j *Journal) SetEnabled(enabled bool) {
	j.mutex.Lock()
	j.enabled = enabled
	j.mutex.Unlock()
}

// Log records an event with optional fields (name, mac, distance, azimuth, elevation)
func (j *Journal) Log(event Event, fields ...string) {
	if j == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[" + j.opts.Now().Format(timeLayout) + "]")
	b.WriteString("[" + j.opts.DemoName + "]")
	b.WriteString("[" + string(event) + "]")
	for _, f := range fields {
		b.WriteString("[" + f + "]")
	}
	row := b.String()

	j.mutex.Lock()
	defer j.mutex.Unlock()
	if !j.enabled {
		return
	}
	j.append(row)
	if j.file != nil {
		// the in-memory ring still holds the row if the file write fails
		_, _ = j.file.WriteString(row + "\n")
	}
}

func (j *Journal) append(row string) {
	if len(j.rows) < j.opts.MaxEntries {
		j.rows = append(j.rows, row)
		return
	}
	j.rows[j.start] = row
	j.start = (j.start + 1) % len(j.rows)
}

// Read returns the last n rows, oldest first; n <= 0 returns every row
func (j *Journal) Read(n int) []string {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	ordered := make([]string, 0, len(j.rows))
	ordered = append(ordered, j.rows[j.start:]...)
	ordered = append(ordered, j.rows[:j.start]...)
	if n > 0 && n < len(ordered) {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

// Len returns the number of rows held in memory
func (j *Journal) Len() int {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return len(j.rows)
}

// Clear drops every in-memory row and truncates the file
func (j *Journal) Clear() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	j.rows = nil
	j.start = 0
	if j.file != nil {
		if err := j.file.Truncate(0); err != nil {
			return errors.Wrap(err, "journal truncate")
		}
	}
	return nil
}

// Close closes the journal file, if any
func (j *Journal) Close() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// Export writes the header and every row to w in the given format
func (j *Journal) Export(w io.Writer, format Format) error {
	return export(w, format, j.Read(0))
}

// FileName returns the export file name for today, e.g. 20240131_uwbconnect.csv
func (j *Journal) FileName(format Format) string {
	return fmt.Sprintf("%s_%s.%s", j.opts.Now().Format(exportLayout), fileBaseName, format)
}

// ExportFile writes an export into dir and returns its path
func (j *Journal) ExportFile(dir string, format Format) (string, error) {
	path := filepath.Join(dir, j.FileName(format))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "journal export create")
	}
	defer f.Close()
	if err := j.Export(f, format); err != nil {
		return "", err
	}
	return path, nil
}

// ExportReader re-encodes rows read from r, one per line, such as a journal file
func ExportReader(w io.Writer, r io.Reader, format Format) error {
	rows := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rows = append(rows, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "journal read")
	}
	return export(w, format, rows)
}

func export(w io.Writer, format Format, rows []string) error {
	bw := bufio.NewWriter(w)
	var cw *csv.Writer
	if format == CSV {
		cw = csv.NewWriter(bw)
	}
	for _, row := range append([]string{Header}, rows...) {
		if row == "" {
			continue
		}
		var err error
		if cw != nil {
			err = cw.Write(columns(row))
		} else {
			_, err = bw.WriteString(row + "\n")
		}
		if err != nil {
			return errors.Wrap(err, "journal export")
		}
	}
	if cw != nil {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return errors.Wrap(err, "journal export")
		}
	}
	return bw.Flush()
}

// columns splits a bracketed row into its fields
func columns(row string) []string {
	row = strings.TrimPrefix(row, "[")
	row = strings.TrimSuffix(row, "]")
	return strings.Split(row, "][")
}
