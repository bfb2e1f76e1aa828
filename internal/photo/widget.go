// Package photo captures an identity photo from a camera stream or an image
// file and exports it as a data URL.
package photo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/mrsinham/oeukintake/internal/dataurl"
)

// Notices shown to the user.
const (
	CameraFallbackNotice = "Could not access camera. Please use file upload instead."
	NotImageNotice       = "Please choose an image file (JPEG, PNG, GIF, WebP or BMP)."
	TooLargeNotice       = "That image is too large. Please choose one under 10 MB."
	CaptureFailedNotice  = "Could not capture photo. Please try again."
)

// JPEGQuality is used for camera snapshots.
const JPEGQuality = 80

// MaxFileSize bounds uploaded images.
const MaxFileSize = 10 << 20

var (
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrNotImage          = errors.New("file is not an image")
	ErrTooLarge          = errors.New("image file too large")
	ErrNoCamera          = errors.New("camera is not active")
)

// Stream is an open camera. Close stops every track and must be safe to
// call more than once.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Camera acquires a stream. Open may block waiting for a device or a
// permission grant and must honour ctx cancellation.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Widget holds the photo answer and the camera session. Methods are safe to
// call from a UI goroutine and from background commands.
type Widget struct {
	mu      sync.Mutex
	fs      afero.Fs
	camera  Camera
	onSave  func(string)
	logger  zerolog.Logger
	preview string
	stream  Stream
	opening bool
	session uint64
	notice  string
}

// Option configures a Widget.
type Option func(*Widget)

func WithLogger(l zerolog.Logger) Option {
	return func(w *Widget) { w.logger = l }
}

// New returns a widget. camera may be nil when no capture device is configured.
func New(fs afero.Fs, camera Camera, onSave func(string), opts ...Option) *Widget {
	w := &Widget{fs: fs, camera: camera, onSave: onSave, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load shows a previously saved encoding without reporting it.
func (w *Widget) Load(initial string) {
	w.mu.Lock()
	w.preview = initial
	w.mu.Unlock()
}

// SelectFile reads an image file and exports its bytes unchanged.
func (w *Widget) SelectFile(path string) error {
	info, err := w.fs.Stat(path)
	if err != nil {
		w.setNotice(fmt.Sprintf("Could not open %s.", path))
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		w.setNotice(TooLargeNotice)
		return fmt.Errorf("%s: %w", path, ErrTooLarge)
	}
	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		w.setNotice(fmt.Sprintf("Could not open %s.", path))
		return fmt.Errorf("read %s: %w", path, err)
	}
	mime := http.DetectContentType(data)
	if !dataurl.IsImage(mime) {
		w.setNotice(NotImageNotice)
		return fmt.Errorf("%s (%s): %w", path, mime, ErrNotImage)
	}
	enc := dataurl.Encode(mime, data)

	w.mu.Lock()
	w.session++
	w.release()
	w.preview = enc
	w.notice = ""
	w.mu.Unlock()

	w.logger.Debug().Str("path", path).Str("mime", mime).Int("bytes", len(data)).Msg("photo selected from file")
	w.save(enc)
	return nil
}

// StartCamera opens the camera. Failure falls back to file selection with
// a notice and never leaves a half-open stream. A stream granted after
// CancelCamera or Close is released at once.
func (w *Widget) StartCamera(ctx context.Context) error {
	w.mu.Lock()
	if w.stream != nil || w.opening {
		w.mu.Unlock()
		return nil
	}
	w.session++
	session := w.session
	w.opening = true
	cam := w.camera
	w.mu.Unlock()

	var s Stream
	err := errors.New("no camera configured")
	if cam != nil {
		s, err = cam.Open(ctx)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if session == w.session {
		w.opening = false
	}
	if err != nil {
		if session == w.session {
			w.notice = CameraFallbackNotice
		}
		w.logger.Warn().Err(err).Msg("camera unavailable")
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	if session != w.session {
		_ = s.Close()
		return context.Canceled
	}
	w.stream = s
	w.notice = ""
	return nil
}

// Frame returns the current live preview frame.
func (w *Widget) Frame(ctx context.Context) (image.Image, error) {
	w.mu.Lock()
	s := w.stream
	w.mu.Unlock()
	if s == nil {
		return nil, ErrNoCamera
	}
	return s.Frame(ctx)
}

// Capture snapshots one frame at native resolution, releases the camera and
// saves the JPEG encoding.
func (w *Widget) Capture(ctx context.Context) error {
	w.mu.Lock()
	s, session := w.stream, w.session
	w.mu.Unlock()
	if s == nil {
		return ErrNoCamera
	}

	img, err := s.Frame(ctx)
	if err != nil {
		w.setNotice(CaptureFailedNotice)
		return fmt.Errorf("capture frame: %w", err)
	}
	enc, err := dataurl.EncodeJPEG(img, JPEGQuality)
	if err != nil {
		w.setNotice(CaptureFailedNotice)
		return err
	}

	w.mu.Lock()
	if session != w.session {
		w.mu.Unlock()
		return context.Canceled
	}
	w.session++
	w.release()
	w.preview = enc
	w.notice = ""
	w.mu.Unlock()

	b := img.Bounds()
	w.logger.Debug().Int("width", b.Dx()).Int("height", b.Dy()).Msg("photo captured")
	w.save(enc)
	return nil
}

// CancelCamera leaves camera mode without saving.
func (w *Widget) CancelCamera() {
	w.mu.Lock()
	w.session++
	w.opening = false
	w.release()
	w.mu.Unlock()
}

// Close releases the camera when the widget goes away.
func (w *Widget) Close() error {
	w.CancelCamera()
	return nil
}

// Remove clears the photo and reports an empty encoding.
func (w *Widget) Remove() {
	w.mu.Lock()
	w.preview = ""
	w.notice = ""
	w.mu.Unlock()
	w.save("")
}

// release is the single teardown path for the camera stream. Callers hold mu.
func (w *Widget) release() {
	if w.stream == nil {
		return
	}
	if err := w.stream.Close(); err != nil {
		w.logger.Warn().Err(err).Msg("close camera stream")
	}
	w.stream = nil
}

func (w *Widget) save(enc string) {
	if w.onSave != nil {
		w.onSave(enc)
	}
}

func (w *Widget) setNotice(n string) {
	w.mu.Lock()
	w.notice = n
	w.mu.Unlock()
}

// Preview returns the current encoding, or "".
func (w *Widget) Preview() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.preview
}

// PreviewImage decodes the current encoding.
func (w *Widget) PreviewImage() (image.Image, error) {
	p := w.Preview()
	if p == "" {
		return nil, nil
	}
	return dataurl.DecodeImage(p)
}

// CameraActive reports whether a stream is open.
func (w *Widget) CameraActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stream != nil
}

// CameraOpening reports whether Open is still waiting.
func (w *Widget) CameraOpening() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opening
}

// Notice returns the message to show the user, or "".
func (w *Widget) Notice() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.notice
}
