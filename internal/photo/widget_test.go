package photo

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mrsinham/oeukintake/internal/dataurl"
)

const (
	testTimeout = 2 * time.Second
	testTick    = 5 * time.Millisecond
)

type fakeStream struct {
	mu     sync.Mutex
	img    image.Image
	err    error
	closed int
}

func (s *fakeStream) Frame(context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed > 0 {
		return nil, ErrStreamClosed
	}
	return s.img, s.err
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeCamera struct {
	stream *fakeStream
	err    error
	gate   chan struct{}
	opens  int
}

func (c *fakeCamera) Open(ctx context.Context) (Stream, error) {
	c.opens++
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.stream, nil
}

type saves struct {
	mu  sync.Mutex
	got []string
}

func (s *saves) record(v string) {
	s.mu.Lock()
	s.got = append(s.got, v)
	s.mu.Unlock()
}

func (s *saves) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.got...)
}

func frame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSelectFileExportsBytes(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := pngBytes(t, frame(8, 8))
	require.NoError(t, afero.WriteFile(fs, "/home/me/face.png", data, 0o644))
	rec := &saves{}
	w := New(fs, nil, rec.record)

	require.NoError(t, w.SelectFile("/home/me/face.png"))

	require.Len(t, rec.all(), 1)
	assert.Equal(t, dataurl.Encode("image/png", data), rec.all()[0])
	assert.Equal(t, rec.all()[0], w.Preview())
	assert.Empty(t, w.Notice())
}

func TestSelectFileRejectsNonImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "notes.txt", []byte("hello there"), 0o644))
	rec := &saves{}
	w := New(fs, nil, rec.record)

	err := w.SelectFile("notes.txt")

	assert.ErrorIs(t, err, ErrNotImage)
	assert.Equal(t, NotImageNotice, w.Notice())
	assert.Empty(t, rec.all())
}

func TestSelectFileTooLargeAndMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "big.png", make([]byte, MaxFileSize+1), 0o644))
	w := New(fs, nil, nil)

	assert.ErrorIs(t, w.SelectFile("big.png"), ErrTooLarge)
	assert.Equal(t, TooLargeNotice, w.Notice())
	assert.Error(t, w.SelectFile("missing.png"))
	assert.Contains(t, w.Notice(), "missing.png")
}

func TestCameraFailureFallsBack(t *testing.T) {
	rec := &saves{}
	w := New(afero.NewMemMapFs(), &fakeCamera{err: errors.New("permission denied")}, rec.record)

	err := w.StartCamera(context.Background())

	assert.ErrorIs(t, err, ErrCameraUnavailable)
	assert.Equal(t, CameraFallbackNotice, w.Notice())
	assert.False(t, w.CameraActive())
	assert.False(t, w.CameraOpening())
	assert.Empty(t, rec.all())
}

func TestNoCameraConfigured(t *testing.T) {
	w := New(afero.NewMemMapFs(), nil, nil)
	assert.ErrorIs(t, w.StartCamera(context.Background()), ErrCameraUnavailable)
	assert.Equal(t, CameraFallbackNotice, w.Notice())
}

func TestCaptureEncodesAndReleases(t *testing.T) {
	stream := &fakeStream{img: frame(320, 240)}
	rec := &saves{}
	w := New(afero.NewMemMapFs(), &fakeCamera{stream: stream}, rec.record)

	require.NoError(t, w.StartCamera(context.Background()))
	require.True(t, w.CameraActive())
	live, err := w.Frame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 320, live.Bounds().Dx())

	require.NoError(t, w.Capture(context.Background()))

	assert.False(t, w.CameraActive())
	assert.Equal(t, 1, stream.Closed())
	got := rec.all()
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "data:image/jpeg;base64,"))
	img, err := dataurl.DecodeImage(got[0])
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds(), "native resolution")

	assert.ErrorIs(t, w.Capture(context.Background()), ErrNoCamera)
	w.Close()
	assert.Equal(t, 1, stream.Closed(), "no double release")
}

func TestCaptureFailureKeepsCamera(t *testing.T) {
	stream := &fakeStream{err: errors.New("device busy")}
	w := New(afero.NewMemMapFs(), &fakeCamera{stream: stream}, nil)
	require.NoError(t, w.StartCamera(context.Background()))

	assert.Error(t, w.Capture(context.Background()))
	assert.Equal(t, CaptureFailedNotice, w.Notice())
	assert.True(t, w.CameraActive())

	w.CancelCamera()
	assert.Equal(t, 1, stream.Closed())
}

func TestCancelAndCloseRelease(t *testing.T) {
	for name, exit := range map[string]func(*Widget){
		"cancel": (*Widget).CancelCamera,
		"close":  func(w *Widget) { _ = w.Close() },
		"file": func(w *Widget) {
			_ = afero.WriteFile(w.fs, "p.png", pngBytes(t, frame(2, 2)), 0o644)
			_ = w.SelectFile("p.png")
		},
	} {
		t.Run(name, func(t *testing.T) {
			stream := &fakeStream{img: frame(4, 4)}
			w := New(afero.NewMemMapFs(), &fakeCamera{stream: stream}, nil)
			require.NoError(t, w.StartCamera(context.Background()))

			exit(w)

			assert.False(t, w.CameraActive())
			assert.Equal(t, 1, stream.Closed())
		})
	}
}

func TestLateGrantAfterCancelIsReleased(t *testing.T) {
	defer goleak.VerifyNone(t)

	stream := &fakeStream{img: frame(4, 4)}
	cam := &fakeCamera{stream: stream, gate: make(chan struct{})}
	w := New(afero.NewMemMapFs(), cam, nil)

	done := make(chan error, 1)
	go func() { done <- w.StartCamera(context.Background()) }()
	require.Eventually(t, w.CameraOpening, testTimeout, testTick)

	w.CancelCamera()
	close(cam.gate)

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, w.CameraActive())
	assert.Equal(t, 1, stream.Closed())
	assert.Empty(t, w.Notice())
}

func TestOpenHonoursContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	cam := &fakeCamera{gate: make(chan struct{})}
	w := New(afero.NewMemMapFs(), cam, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.StartCamera(ctx) }()
	require.Eventually(t, w.CameraOpening, testTimeout, testTick)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, ErrCameraUnavailable)
	assert.False(t, w.CameraOpening())
}

func TestRemoveSavesEmpty(t *testing.T) {
	rec := &saves{}
	w := New(afero.NewMemMapFs(), nil, rec.record)
	w.Load("data:image/png;base64,AAAA")

	w.Remove()

	assert.Equal(t, []string{""}, rec.all())
	assert.Empty(t, w.Preview())
	img, err := w.PreviewImage()
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestCommandCamera(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses cat")
	}
	if _, err := os.Stat("/bin/cat"); err != nil {
		t.Skip("cat not available")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, frame(16, 9)), 0o644))

	cam := &CommandCamera{Command: []string{"cat", path}}
	s, err := cam.Open(context.Background())
	require.NoError(t, err)
	img, err := s.Frame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	require.NoError(t, s.Close())
	_, err = s.Frame(context.Background())
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestCommandCameraMissingProgram(t *testing.T) {
	cam := NewCommandCamera("definitely-not-a-camera-tool --grab")
	_, err := cam.Open(context.Background())
	assert.Error(t, err)
	assert.Equal(t, DefaultCameraCommand, NewCommandCamera("  ").Command)
}
