package audio

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/gen2brain/malgo"
)

type MalgoConfig struct {
	SampleRate    int
	DeviceName    string
	WarmupSamples int
	QueueSize     int
}

// MalgoSource captures mono 16-bit PCM from a microphone. The capture
// callback fills a bounded queue that Read drains without blocking.
type MalgoSource struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	queue  *audio.SampleQueue

	mu     sync.Mutex
	warmup warmupFilter
	ready  bool
}

func NewMalgoSource(cfg MalgoConfig) (*MalgoSource, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}
	s := &MalgoSource{
		ctx:    ctx,
		queue:  audio.NewSampleQueue(cfg.QueueSize),
		warmup: warmupFilter{remaining: cfg.WarmupSamples},
	}

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatS16
	deviceCfg.Capture.Channels = 1
	deviceCfg.SampleRate = uint32(cfg.SampleRate)
	if cfg.DeviceName != "" {
		id, err := findCaptureDevice(ctx, cfg.DeviceName)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		deviceCfg.Capture.DeviceID = id.Pointer()
	}

	device, err := malgo.InitDevice(ctx.Context, deviceCfg, malgo.DeviceCallbacks{Data: s.onData})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("initializing capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = s.Close()
		return nil, fmt.Errorf("starting capture device: %w", err)
	}

	s.mu.Lock()
	s.device = device
	s.ready = true
	s.mu.Unlock()
	slog.Info("microphone capture started", "sample_rate", cfg.SampleRate, "device", cfg.DeviceName, "warmup_samples", cfg.WarmupSamples)
	return s, nil
}

func findCaptureDevice(ctx *malgo.AllocatedContext, name string) (malgo.DeviceID, error) {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceID{}, fmt.Errorf("listing capture devices: %w", err)
	}
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(name)) {
			return info.ID, nil
		}
	}
	return malgo.DeviceID{}, fmt.Errorf("capture device %q not found", name)
}

func (s *MalgoSource) onData(_, pSample []byte, frameCount uint32) {
	n := min(int(frameCount)*2, len(pSample))
	samples := audio.PCM16FromBytes(pSample[:n])

	s.mu.Lock()
	samples = s.warmup.apply(samples)
	s.mu.Unlock()
	if len(samples) > 0 {
		s.queue.Push(samples)
	}
}

func (s *MalgoSource) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *MalgoSource) Read(dst []int16) int {
	return s.queue.Read(dst)
}

func (s *MalgoSource) Discard() {
	if n := s.queue.Len(); n > 0 {
		slog.Debug("discarding buffered capture", "samples", n)
	}
	s.queue.Reset()
}

func (s *MalgoSource) Dropped() int64 {
	return s.queue.Dropped()
}

func (s *MalgoSource) Close() error {
	s.mu.Lock()
	device := s.device
	s.device = nil
	s.ready = false
	s.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	if s.ctx != nil {
		if err := s.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninitializing audio context: %w", err)
		}
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}

// warmupFilter drops the first samples a microphone delivers after power-up.
type warmupFilter struct {
	remaining int
}

func (w *warmupFilter) apply(samples []int16) []int16 {
	if w.remaining <= 0 {
		return samples
	}
	drop := min(w.remaining, len(samples))
	w.remaining -= drop
	return samples[drop:]
}
