package session

import (
	"context"
	"sync"
	"time"

	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/repository"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/foxseedlab/kikitori/internal/webhook"
)

type fakeSource struct {
	notReady bool
	samples  []int16
	pos      int
	discards int
}

func (f *fakeSource) Ready() bool { return !f.notReady }

func (f *fakeSource) Read(dst []int16) int {
	n := copy(dst, f.samples[f.pos:])
	f.pos += n
	return n
}

func (f *fakeSource) Discard() { f.discards++ }

func (f *fakeSource) Close() error { return nil }

// queueSource behaves like a live capture device: audio pushed at any time
// waits in a bounded queue until read or discarded.
type queueSource struct {
	queue *audio.SampleQueue
}

func newQueueSource() *queueSource {
	return &queueSource{queue: audio.NewSampleQueue(testRate * 4)}
}

func (q *queueSource) Ready() bool { return true }

func (q *queueSource) Read(dst []int16) int { return q.queue.Read(dst) }

func (q *queueSource) Discard() { q.queue.Reset() }

func (q *queueSource) Close() error { return nil }

func newFakeSource(parts ...[]int16) *fakeSource {
	var all []int16
	for _, p := range parts {
		all = append(all, p...)
	}
	return &fakeSource{samples: all}
}

func constant(n int, v int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type mockBackend struct {
	sessionID string
	text      string
	startErr  error
	chunkErr  error
	stopErr   error
	batchErr  error

	startCalls int
	chunks     [][]byte
	stopCalls  []string
	abortCalls []string
	batchReqs  []transcriber.BatchRequest
}

func (m *mockBackend) StartSession(_ context.Context, _ transcriber.AudioFormat) (string, error) {
	m.startCalls++
	if m.startErr != nil {
		return "", m.startErr
	}
	if m.sessionID == "" {
		return "remote-1", nil
	}
	return m.sessionID, nil
}

func (m *mockBackend) SendChunk(_ context.Context, _ string, chunk []byte) error {
	if m.chunkErr != nil {
		return m.chunkErr
	}
	m.chunks = append(m.chunks, append([]byte(nil), chunk...))
	return nil
}

func (m *mockBackend) StopAndTranscribe(_ context.Context, sessionID string) (string, error) {
	m.stopCalls = append(m.stopCalls, sessionID)
	if m.stopErr != nil {
		return "", m.stopErr
	}
	return m.text, nil
}

func (m *mockBackend) AbortSession(_ context.Context, sessionID string) error {
	m.abortCalls = append(m.abortCalls, sessionID)
	return nil
}

func (m *mockBackend) TranscribeBatch(_ context.Context, req transcriber.BatchRequest) (string, error) {
	m.batchReqs = append(m.batchReqs, req)
	if m.batchErr != nil {
		return "", m.batchErr
	}
	return m.text, nil
}

type recordingReceiver struct {
	results  []transcriber.Result
	noSpeech []transcriber.NoSpeech
	errs     []error
}

func (r *recordingReceiver) OnResult(result transcriber.Result) { r.results = append(r.results, result) }
func (r *recordingReceiver) OnNoSpeech(e transcriber.NoSpeech)  { r.noSpeech = append(r.noSpeech, e) }
func (r *recordingReceiver) OnError(err error)                  { r.errs = append(r.errs, err) }

type mockRepository struct {
	mu        sync.Mutex
	inserted  []repository.InsertUtteranceInput
	insertErr error
}

func (m *mockRepository) InsertUtterance(_ context.Context, input repository.InsertUtteranceInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, input)
	return m.insertErr
}

func (m *mockRepository) ListRecentUtterances(_ context.Context, _ int) ([]repository.Utterance, error) {
	return nil, nil
}

type mockWebhookSender struct {
	mu       sync.Mutex
	payloads []webhook.TranscriptWebhookPayload
}

func (m *mockWebhookSender) SendTranscript(_ context.Context, payload webhook.TranscriptWebhookPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return nil
}
