package signal3

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/neubio/neubio/pkg/common"
	"github.com/neubio/neubio/pkg/providers"
)

var _ providers.Interface = &file{}

// DefaultHeader matches the line that opens a frame block and captures its number.
var DefaultHeader = regexp.MustCompile(`".*\.cfs","Frame (\d+)"`)

type scannerState int

const (
	scanning scannerState = iota
	foundHeader
	collecting
)

type file struct {
	frames providers.FrameSet
}

// Open reads a Signal3 ASCII export from disk.
func Open(path string) (providers.Interface, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	klog.InfoS("Reading Signal3 export", "path", path)
	return NewProvider(fd)
}

// NewProvider parses every frame of a Signal3 ASCII export. Each frame is a header line,
// one column caption row and time,response,stimuli rows terminated by an empty line.
func NewProvider(r io.Reader) (providers.Interface, error) {
	f := &file{frames: providers.FrameSet{}}
	if err := f.load(r); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *file) Frames(start, end int) ([]*common.Frame, error) {
	return f.frames.Select(start, end)
}

func (f *file) Numbers() []int {
	return f.frames.Numbers()
}

func (f *file) load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	state := scanning
	number := -1
	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Bytes()
		switch state {
		case scanning:
			if m := DefaultHeader.FindSubmatch(line); m != nil {
				n, err := strconv.Atoi(string(m[1]))
				if err != nil {
					return fmt.Errorf("invalid frame header %q: %v", line, err)
				}
				number = n
				klog.V(6).InfoS("Frame start", "frame", number)
				state = foundHeader
			}
		case foundHeader:
			// column captions
			state = collecting
		case collecting:
			if len(bytes.TrimSpace(line)) > 0 {
				data.Write(line)
				data.WriteByte('\n')
				continue
			}
			if err := f.add(number, &data); err != nil {
				return err
			}
			data.Reset()
			state = scanning
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	// the last block may run into the end of the file
	if state == collecting && data.Len() > 0 {
		if err := f.add(number, &data); err != nil {
			return err
		}
	}

	if len(f.frames) == 0 {
		return providers.ErrNoFrames
	}
	return nil
}

func (f *file) add(number int, data io.Reader) error {
	if _, ok := f.frames[number]; ok {
		return fmt.Errorf("duplicate frame %d", number)
	}
	frame, err := parseFrame(number, data)
	if err != nil {
		return err
	}
	klog.V(6).InfoS("Frame end", "frame", number, "samples", len(frame.Time))
	f.frames[number] = frame
	return nil
}

func parseFrame(number int, data io.Reader) (*common.Frame, error) {
	reader := csv.NewReader(data)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("frame %d: %v", number, err)
	}

	frame := &common.Frame{
		Number:   number,
		Time:     make([]float64, len(records)),
		Response: make([]float64, len(records)),
		Stimuli:  make([]float64, len(records)),
	}
	for i, record := range records {
		for k, dst := range [][]float64{frame.Time, frame.Response, frame.Stimuli} {
			v, err := strconv.ParseFloat(record[k], 64)
			if err != nil {
				return nil, fmt.Errorf("frame %d, row %d: %v", number, i, err)
			}
			dst[i] = v
		}
	}
	return frame, nil
}
