package audio

import (
	"errors"
	"sync"
	"time"
)

const fakeChunkFrames = 1600 // 100ms at 16 kHz

// FakeContext serves FakeCaptures over a fixed PCM buffer.
type FakeContext struct {
	PCM      []byte
	Realtime bool
	List     []DeviceInfo
	Err      error // returned by NewCapture when set
}

func NewFakeContext(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{PCM: pcm, Realtime: realtime, List: []DeviceInfo{{ID: "fake-0", Name: "fake"}}}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.List, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(dev *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	name := "fake"
	if dev != nil {
		name = dev.Name
	}
	return &FakeCapture{pcm: f.PCM, realtime: f.Realtime, name: name}, nil
}

// FakeCapture replays its PCM buffer once per Start, then feeds silence
// until Stop. Start and Stop calls are counted for assertions.
type FakeCapture struct {
	pcm      []byte
	realtime bool
	name     string

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
	starts   int
	stops    int
	StartErr error
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return f.name }

func (f *FakeCapture) Counts() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	if f.StartErr != nil {
		f.mu.Unlock()
		return f.StartErr
	}
	if f.stopCh != nil {
		f.mu.Unlock()
		return errors.New("fake capture already started")
	}
	f.starts++
	stop := make(chan struct{})
	done := make(chan struct{})
	f.stopCh, f.feedDone = stop, done
	f.mu.Unlock()

	chunkBytes := fakeChunkFrames * BytesPerFrame
	interval := time.Millisecond
	if f.realtime {
		interval = time.Duration(fakeChunkFrames) * time.Second / SampleRate
	}

	go func() {
		defer close(done)
		silence := make([]byte, chunkBytes)
		pos := 0
		for {
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
			cb := f.callback()
			if cb == nil {
				continue
			}
			if pos < len(f.pcm) {
				end := min(pos+chunkBytes, len(f.pcm))
				chunk := make([]byte, end-pos)
				copy(chunk, f.pcm[pos:end])
				pos = end
				cb(chunk, uint32(len(chunk)/BytesPerFrame))
				continue
			}
			cb(silence, fakeChunkFrames)
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stop, done := f.stopCh, f.feedDone
	f.stopCh, f.feedDone = nil, nil
	if stop != nil {
		f.stops++
	}
	f.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (f *FakeCapture) Close() { f.Stop() }
