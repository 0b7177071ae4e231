package scan

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/qrattend/internal/filex"
	"github.com/fsnotify/fsnotify"
)

// Camera hands out a Stream of frames.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an acquired camera. Frame returns ErrFrameNotReady when no frame
// is available and io.EOF when the stream has no more frames. Close releases
// the device and may be called concurrently with Frame.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// ImageCamera serves a single still image as a one-frame stream.
type ImageCamera struct {
	Path string
}

func (c ImageCamera) Open(ctx context.Context) (Stream, error) {
	img, err := readImage(c.Path)
	if err != nil {
		return nil, err
	}
	return &stillStream{img: img}, nil
}

type stillStream struct {
	mu   sync.Mutex
	img  image.Image
	sent bool
}

func (s *stillStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent || s.img == nil {
		return nil, io.EOF
	}
	s.sent = true
	return s.img, nil
}

func (s *stillStream) Close() error {
	s.mu.Lock()
	s.img = nil
	s.mu.Unlock()
	return nil
}

// DirCamera watches a directory and treats every image file created or
// rewritten in it as a new frame. Only one stream may hold it at a time.
type DirCamera struct {
	Dir string

	mu   sync.Mutex
	busy bool
}

func (c *DirCamera) Open(ctx context.Context) (Stream, error) {
	if _, err := os.Stat(c.Dir); err != nil {
		return nil, err
	}
	if !filex.IsDir(c.Dir) {
		return nil, fmt.Errorf("%s is not a directory: %w", c.Dir, os.ErrNotExist)
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrDeviceBusy
	}
	c.busy = true
	c.mu.Unlock()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		c.release()
		return nil, err
	}
	if err := w.Add(c.Dir); err != nil {
		_ = w.Close()
		c.release()
		return nil, err
	}

	s := &dirStream{watcher: w, camera: c, queued: make(map[string]bool)}
	go s.watch()
	return s, nil
}

func (c *DirCamera) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

type dirStream struct {
	watcher *fsnotify.Watcher
	camera  *DirCamera

	mu      sync.Mutex
	pending []string
	queued  map[string]bool
	err     error
	closed  bool
	once    sync.Once
}

func (s *dirStream) watch() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !isImageFile(ev.Name) {
				continue
			}
			s.mu.Lock()
			if !s.queued[ev.Name] {
				s.queued[ev.Name] = true
				s.pending = append(s.pending, ev.Name)
			}
			s.mu.Unlock()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}
}

// Frame decodes the oldest pending file. A file that cannot be decoded yet
// (still being written) is dropped; its next write event queues it again.
func (s *dirStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, io.EOF
	}
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return nil, err
	}
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return nil, ErrFrameNotReady
	}
	name := s.pending[0]
	s.pending = s.pending[1:]
	delete(s.queued, name)
	s.mu.Unlock()

	img, err := readImage(name)
	if err != nil {
		return nil, ErrFrameNotReady
	}
	return img, nil
}

func (s *dirStream) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		err = s.watcher.Close()
		s.camera.release()
	})
	return err
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
