package extract

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var ErrFileWrite = errors.New("an error occurred while writing the file")

// MergedFileName is the aggregate CSV written after all channels finish.
const MergedFileName = "data.csv"

// CSVHeader is the column layout shared by every per-channel and merged CSV.
var CSVHeader = []string{"Timestamp", "Milliseconds", "FileName", "SensorType", "Channel", "Data"}

// SensorType is the display name used for a channel label.
func SensorType(label string) string {
	switch label {
	case "ECG":
		return "H10"
	case "PPG":
		return "VS"
	default:
		return label
	}
}

// channelOutput names the files and identity of one channel's outputs.
type channelOutput struct {
	fileName   string
	sensorType string
	label      string
	reportPath string
	csvPath    string
}

func newChannelOutput(dir, fileName, label string) channelOutput {
	part := partName(label)
	return channelOutput{
		fileName:   fileName,
		sensorType: SensorType(label),
		label:      label,
		reportPath: filepath.Join(dir, part+".txt"),
		csvPath:    filepath.Join(dir, part+".csv"),
	}
}

// writeOutcome is the result of one file write.
type writeOutcome struct {
	path string
	err  error
}

// writeAll writes the report and the CSV concurrently. done is called once
// per file as it finishes; writeAll returns after both have finished.
func (o channelOutput) writeAll(d *DecodedChannel, done func(writeOutcome)) (reportOut, csvOut writeOutcome) {
	var wg sync.WaitGroup
	wg.Go(func() {
		csvOut = writeOutcome{path: o.csvPath, err: o.writeCSV(d)}
		done(csvOut)
	})
	wg.Go(func() {
		reportOut = writeOutcome{path: o.reportPath, err: o.writeReport(d)}
		done(reportOut)
	})
	wg.Wait()
	return reportOut, csvOut
}

// writeReport writes the text report: duration and datapoint header lines,
// a blank line, then one "<timestamp> <ms> <file>/<type>/<label> <value>"
// line per sample.
func (o channelOutput) writeReport(d *DecodedChannel) error {
	tag := o.fileName + "/" + o.sensorType + "/" + o.label
	return writeFile(o.reportPath, func(w *bufio.Writer) error {
		if _, err := fmt.Fprintf(w, "#DURATION %s\n#DATAPOINTS %d\n\n", d.Duration, d.Datapoints); err != nil {
			return err
		}
		for i := 0; i < d.Rows(); i++ {
			if _, err := fmt.Fprintf(w, "%s %s %s %s\n", d.Timestamps[i], d.Milliseconds[i], tag, d.Values[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeCSV writes one unheaded row per sample.
func (o channelOutput) writeCSV(d *DecodedChannel) error {
	return writeFile(o.csvPath, func(w *bufio.Writer) error {
		cw := newCSVWriter(w)
		for i := 0; i < d.Rows(); i++ {
			row := []string{d.Timestamps[i], d.Milliseconds[i], o.fileName, o.sensorType, o.label, d.Values[i]}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func newCSVWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw
}

func writeFile(path string, fill func(w *bufio.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileWrite, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w: %v", ErrFileWrite, cerr)
		}
	}()
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		return fmt.Errorf("%w: %v", ErrFileWrite, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileWrite, err)
	}
	return nil
}

// mergeCSV writes the shared header followed by every part, in order.
func mergeCSV(path string, parts []string) error {
	return writeFile(path, func(w *bufio.Writer) error {
		cw := newCSVWriter(w)
		if err := cw.Write(CSVHeader); err != nil {
			return err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		for _, part := range parts {
			if err := appendFile(w, part); err != nil {
				return err
			}
		}
		return nil
	})
}

func appendFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}
