//go:build !linux

package beep

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"parley/log"
)

const tailSeconds = 0.05

var (
	devOnce sync.Once
	mctx    *malgo.AllocatedContext
	device  *malgo.Device
	playMu  sync.Mutex

	current atomic.Pointer[[]byte]
	offset  atomic.Uint32
)

func openDevice() {
	var err error
	mctx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Warnf("beep: audio context: %v", err)
		return
	}
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 2
	cfg.SampleRate = sampleRate
	device, err = malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{Data: fill})
	if err != nil {
		log.Warnf("beep: playback device: %v", err)
		mctx.Uninit()
		mctx.Free()
		mctx, device = nil, nil
	}
}

func fill(out, _ []byte, frames uint32) {
	clear(out)
	buf := current.Load()
	if buf == nil {
		return
	}
	pos := offset.Load()
	want := frames * 4
	rest := uint32(len(*buf)) - pos
	if rest == 0 {
		current.Store(nil)
		return
	}
	n := min(want, rest)
	copy(out[:n], (*buf)[pos:pos+n])
	offset.Store(pos + n)
}

func play(samples []int16) {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	playMu.Lock()
	defer playMu.Unlock()
	devOnce.Do(openDevice)
	if device == nil {
		return
	}
	device.Stop()
	offset.Store(0)
	current.Store(&pcm)
	if err := device.Start(); err != nil {
		// the device can go stale after sleep/wake
		device.Uninit()
		mctx.Uninit()
		mctx.Free()
		device, mctx = nil, nil
		devOnce = sync.Once{}
		current.Store(nil)
		log.Warnf("beep: start playback: %v", err)
	}
}
