package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oxygene76/orrery/pkg/scene"
)

// FrameSink receives recorded frames
type FrameSink interface {
	OnStart(totalFrames int) error
	OnFrame(f Frame) error
	OnEnd(f Frame) error
	Close() error
}

// JSONLFrameWriter writes one frame per line to disk
type JSONLFrameWriter struct {
	f      *os.File
	bw     *bufio.Writer
	frames int
}

// NewJSONLFrameWriter creates path and its parent directories
func NewJSONLFrameWriter(path string) (*JSONLFrameWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame file: %w", err)
	}
	return &JSONLFrameWriter{f: f, bw: bufio.NewWriter(f)}, nil
}

func (w *JSONLFrameWriter) OnStart(totalFrames int) error { return nil }

func (w *JSONLFrameWriter) OnFrame(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", f.Seq, err)
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return err
	}
	w.frames++
	return nil
}

func (w *JSONLFrameWriter) OnEnd(f Frame) error { return w.bw.Flush() }

// Frames returns how many frames were written
func (w *JSONLFrameWriter) Frames() int { return w.frames }

func (w *JSONLFrameWriter) Close() error {
	if w.bw != nil {
		_ = w.bw.Flush()
	}
	if w.f != nil {
		return w.f.Close()
	}
	return nil
}

// Record renders the given number of frames, advancing state by stepDays between them,
// and hands each frame to sink
func Record(e *Engine, state scene.State, frames int, stepDays float64, sink FrameSink) error {
	if err := sink.OnStart(frames); err != nil {
		return err
	}
	var last Frame
	for i := 0; i < frames; i++ {
		last = e.Frame(state)
		if err := sink.OnFrame(last); err != nil {
			return err
		}
		state = state.Step(stepDays).State
	}
	return sink.OnEnd(last)
}
