package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strings"
	"sync"

	// Frame decoders.
	_ "image/jpeg"
	_ "image/png"
)

// DefaultCameraCommand grabs one PNG frame from the first V4L2 device.
var DefaultCameraCommand = []string{
	"ffmpeg", "-loglevel", "error", "-f", "v4l2", "-i", "/dev/video0",
	"-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "-",
}

// ErrStreamClosed is returned by Frame after Close.
var ErrStreamClosed = errors.New("camera stream closed")

// CommandCamera runs an external capture program that writes a single
// encoded image to stdout for every frame.
type CommandCamera struct {
	Command []string
}

// NewCommandCamera splits a command line on spaces. An empty line selects
// DefaultCameraCommand.
func NewCommandCamera(line string) *CommandCamera {
	args := strings.Fields(line)
	if len(args) == 0 {
		args = DefaultCameraCommand
	}
	return &CommandCamera{Command: args}
}

// Open resolves the program and grabs a first frame, so a missing device or
// a refused permission surfaces here rather than on capture.
func (c *CommandCamera) Open(ctx context.Context) (Stream, error) {
	if len(c.Command) == 0 {
		return nil, errors.New("no camera command")
	}
	path, err := exec.LookPath(c.Command[0])
	if err != nil {
		return nil, fmt.Errorf("camera command %q: %w", c.Command[0], err)
	}
	s := &commandStream{path: path, args: c.Command[1:]}
	if _, err := s.Frame(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

type commandStream struct {
	path string
	args []string

	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
}

func (s *commandStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStreamClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.path, s.args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("grab frame: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("grab frame: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// Close kills a capture in progress and refuses further frames.
func (s *commandStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}
