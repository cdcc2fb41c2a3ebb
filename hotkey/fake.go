package hotkey

import "sync"

type FakeHotkey struct {
	RegisterErr error

	keydown chan struct{}
	keyup   chan struct{}

	mu           sync.Mutex
	registered   bool
	unregistered int
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (f *FakeHotkey) Register() error {
	if f.RegisterErr != nil {
		return f.RegisterErr
	}
	f.mu.Lock()
	f.registered = true
	f.mu.Unlock()
	return nil
}

func (f *FakeHotkey) Unregister() {
	f.mu.Lock()
	f.registered = false
	f.unregistered++
	f.mu.Unlock()
}

func (f *FakeHotkey) Keydown() <-chan struct{} { return f.keydown }
func (f *FakeHotkey) Keyup() <-chan struct{}   { return f.keyup }

func (f *FakeHotkey) SimKeydown() { f.keydown <- struct{}{} }
func (f *FakeHotkey) SimKeyup()   { f.keyup <- struct{}{} }

// SimPress sends a full press and release.
func (f *FakeHotkey) SimPress() {
	f.SimKeydown()
	f.SimKeyup()
}

func (f *FakeHotkey) Registered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered
}

func (f *FakeHotkey) Unregistered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unregistered
}
