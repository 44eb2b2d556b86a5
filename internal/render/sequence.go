package render

import (
	"fmt"
	"image"
	"image/draw"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fogleman/gg"
)

// SequenceSlots is the number of frames buffered between the render loop and
// the PNG encoder. At 50 FPS that is about a third of a second of slack.
const SequenceSlots = 16

// frameRing is a single-producer single-consumer ring of preallocated frames.
// A full ring drops the new frame rather than blocking the render loop.
type frameRing struct {
	frames   [SequenceSlots]*image.RGBA
	numbers  [SequenceSlots]int
	bounds   image.Rectangle
	readIdx  atomic.Uint32
	writeIdx atomic.Uint32

	written atomic.Uint64
	dropped atomic.Uint64
}

func newFrameRing(w, h int) *frameRing {
	rb := &frameRing{bounds: image.Rect(0, 0, w, h)}
	for i := range rb.frames {
		rb.frames[i] = image.NewRGBA(rb.bounds)
	}
	return rb
}

// tryWrite copies img into the next free slot. Frames of the wrong size are
// rejected.
func (rb *frameRing) tryWrite(img image.Image, n int) bool {
	if img.Bounds() != rb.bounds {
		rb.dropped.Add(1)
		return false
	}
	cur := rb.writeIdx.Load()
	next := (cur + 1) % SequenceSlots
	if next == rb.readIdx.Load() {
		rb.dropped.Add(1)
		return false
	}

	dst := rb.frames[cur]
	if src, ok := img.(*image.RGBA); ok && src.Stride == dst.Stride {
		copy(dst.Pix, src.Pix)
	} else {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	rb.numbers[cur] = n

	rb.writeIdx.Store(next)
	rb.written.Add(1)
	return true
}

// peek returns the oldest frame without freeing its slot.
func (rb *frameRing) peek() (*image.RGBA, int, bool) {
	r := rb.readIdx.Load()
	if r == rb.writeIdx.Load() {
		return nil, 0, false
	}
	return rb.frames[r], rb.numbers[r], true
}

// release frees the slot returned by peek.
func (rb *frameRing) release() {
	rb.readIdx.Store((rb.readIdx.Load() + 1) % SequenceSlots)
}

func (rb *frameRing) available() int {
	r, w := rb.readIdx.Load(), rb.writeIdx.Load()
	if w >= r {
		return int(w - r)
	}
	return int(SequenceSlots - r + w)
}

// SequenceStats summarises a sequence writer.
type SequenceStats struct {
	Submitted uint64 `json:"submitted"`
	Dropped   uint64 `json:"dropped"`
	Written   uint64 `json:"written"`
	Errors    uint64 `json:"errors"`
}

// SequenceWriter encodes submitted frames to numbered PNG files on its own
// goroutine, so a slow disk never stalls the frame loop.
type SequenceWriter struct {
	dir  string
	ring *frameRing
	next int

	wake    chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	written atomic.Uint64
	errors  atomic.Uint64
}

// NewSequenceWriter creates dir if needed and prepares a w x h frame ring.
func NewSequenceWriter(dir string, w, h int) (*SequenceWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sequence dir: %w", err)
	}
	return &SequenceWriter{
		dir:  dir,
		ring: newFrameRing(w, h),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}, nil
}

// Path returns the file name used for frame n.
func (w *SequenceWriter) Path(n int) string {
	return filepath.Join(w.dir, fmt.Sprintf("frame_%05d.png", n))
}

// Start launches the encoder goroutine.
func (w *SequenceWriter) Start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		log.Printf("🎞️ Sequence writer started (%s)", w.dir)
		for {
			select {
			case <-w.stop:
				w.drain()
				return
			case <-w.wake:
				w.drain()
			}
		}
	}()
}

func (w *SequenceWriter) drain() {
	for {
		img, n, ok := w.ring.peek()
		if !ok {
			return
		}
		if err := gg.SavePNG(w.Path(n), img); err != nil {
			if w.errors.Add(1) <= 5 {
				log.Printf("❌ Sequence frame %d: %v", n, err)
			}
		} else {
			w.written.Add(1)
		}
		w.ring.release()
	}
}

// Submit queues a copy of img as the next frame. It returns false when the
// frame was dropped because the encoder is behind.
func (w *SequenceWriter) Submit(img image.Image) bool {
	n := w.next
	w.next++
	if !w.ring.tryWrite(img, n) {
		return false
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// Stop waits for queued frames to be written and stops the encoder.
func (w *SequenceWriter) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stop)
	w.wg.Wait()
	log.Printf("🎞️ Sequence writer stopped: %d frames written", w.written.Load())
}

// Pending returns the number of frames waiting to be encoded.
func (w *SequenceWriter) Pending() int {
	return w.ring.available()
}

// Stats returns writer counters.
func (w *SequenceWriter) Stats() SequenceStats {
	return SequenceStats{
		Submitted: w.ring.written.Load(),
		Dropped:   w.ring.dropped.Load(),
		Written:   w.written.Load(),
		Errors:    w.errors.Load(),
	}
}
