package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/neubio/neubio/pkg/common"
	"github.com/neubio/neubio/pkg/providers"
)

var _ providers.Interface = &dir{}

var (
	header   = []string{common.ChannelTime, common.ChannelResponse, common.ChannelStimuli}
	fileName = regexp.MustCompile(`^frame_(\d+)\.csv$`)
)

type dir struct {
	root   string
	frames providers.FrameSet
}

// NewProvider loads every frame_<n>.csv file of a directory.
func NewProvider(root string) (providers.Interface, error) {
	d := &dir{root: root, frames: providers.FrameSet{}}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dir) Frames(start, end int) ([]*common.Frame, error) {
	return d.frames.Select(start, end)
}

func (d *dir) Numbers() []int {
	return d.frames.Numbers()
}

func (d *dir) load() error {
	entries, err := ioutil.ReadDir(d.root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := fileName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			return err
		}

		frame, err := d.read(number, filepath.Join(d.root, entry.Name()))
		if err != nil {
			return err
		}
		d.frames[number] = frame
	}

	if len(d.frames) == 0 {
		return fmt.Errorf("%w in %s", providers.ErrNoFrames, d.root)
	}
	klog.V(4).InfoS("Loaded frame directory", "path", d.root, "frames", len(d.frames))
	return nil
}

func (d *dir) read(number int, path string) (*common.Frame, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	frame, err := ReadFrame(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	frame.Number = number
	return frame, nil
}

// ReadFrame parses one frame written by WriteFrame. Columns are matched by their
// header name, so their order does not matter.
func ReadFrame(r io.Reader) (*common.Frame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	columns := map[string]int{}
	for i, name := range records[0] {
		columns[name] = i
	}
	for _, name := range header {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	n := len(records) - 1
	frame := &common.Frame{
		Time:     make([]float64, n),
		Response: make([]float64, n),
		Stimuli:  make([]float64, n),
	}
	targets := map[string][]float64{
		common.ChannelTime:     frame.Time,
		common.ChannelResponse: frame.Response,
		common.ChannelStimuli:  frame.Stimuli,
	}
	for i := 1; i < len(records); i++ {
		for name, dst := range targets {
			v, err := strconv.ParseFloat(records[i][columns[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %v", i, err)
			}
			dst[i-1] = v
		}
	}
	return frame, nil
}

// WriteFrame writes a frame as CSV with a time,response,stimuli header.
func WriteFrame(w io.Writer, frame *common.Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i := range frame.Time {
		record := []string{
			strconv.FormatFloat(frame.Time[i], 'g', -1, 64),
			strconv.FormatFloat(frame.Response[i], 'g', -1, 64),
			strconv.FormatFloat(frame.Stimuli[i], 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDir writes every frame into root as frame_<n>.csv, creating root if needed.
func WriteDir(root string, frames []*common.Frame) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	for _, frame := range frames {
		path := filepath.Join(root, frame.String()+".csv")
		if err := writeFile(path, frame); err != nil {
			return err
		}
		klog.V(4).InfoS("Wrote frame", "path", path)
	}
	return nil
}

func writeFile(path string, frame *common.Frame) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFrame(fd, frame); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}
