// Package stubasr is a local stand-in for the ASR HTTP service. It accepts
// both the chunked stream protocol and the single-request transcribe
// protocol and answers with a transcript describing how much audio it got.
package stubasr

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const wavHeaderSize = 44

type Server struct {
	app    *fiber.App
	apiKey string

	mu       sync.Mutex
	sessions map[string]*streamSession
}

type streamSession struct {
	format    streamFormat
	received  int
	chunks    int
	startedAt time.Time
}

type streamFormat struct {
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
	Bits       int `json:"bits"`
}

type transcribeRequest struct {
	InlineAudioBase64 string `json:"inline_audio_base64"`
	MimeType          string `json:"mime_type"`
	InstructionText   string `json:"instruction_text"`
	SampleRate        int    `json:"sample_rate"`
	Channels          int    `json:"channels"`
	Bits              int    `json:"bits"`
}

// NewServer builds the fiber app. An empty apiKey disables the x-api-key check.
func NewServer(apiKey string) *Server {
	s := &Server{
		apiKey:   apiKey,
		sessions: make(map[string]*streamSession),
	}
	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024,
	})
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	asr := s.app.Group("/v1/asr", s.requireAPIKey)
	asr.Post("/stream/start", s.handleStreamStart)
	asr.Post("/stream/chunk", s.handleStreamChunk)
	asr.Post("/stream/stop", s.handleStreamStop)
	asr.Post("/stream/abort", s.handleStreamAbort)
	asr.Post("/transcribe", s.handleTranscribe)
}

// App exposes the underlying fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	slog.Info("stub asr server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ActiveSessions reports how many stream sessions are open.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) requireAPIKey(c *fiber.Ctx) error {
	if s.apiKey != "" && c.Get("x-api-key") != s.apiKey {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid api key"})
	}
	return c.Next()
}

func (s *Server) handleStreamStart(c *fiber.Ctx) error {
	var f streamFormat
	if err := c.BodyParser(&f); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if f.SampleRate <= 0 || f.Channels <= 0 || f.Bits <= 0 || f.Bits%8 != 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid audio format"})
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &streamSession{format: f, startedAt: time.Now()}
	s.mu.Unlock()

	slog.Debug("stream session started", "session_id", id, "sample_rate", f.SampleRate)
	return c.JSON(fiber.Map{"session_id": id})
}

func (s *Server) handleStreamChunk(c *fiber.Ctx) error {
	id := c.Query("session_id")
	size := len(c.Body())

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		sess.received += size
		sess.chunks++
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown session"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleStreamStop(c *fiber.Ctx) error {
	sess, ok := s.take(c.Query("session_id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown session"})
	}
	d := pcmDuration(sess.received, sess.format)
	slog.Info("stream session stopped",
		"session_id", c.Query("session_id"),
		"chunks", sess.chunks,
		"bytes", sess.received,
		"duration", d.String(),
	)
	return c.JSON(fiber.Map{"text": describe(d)})
}

func (s *Server) handleStreamAbort(c *fiber.Ctx) error {
	if _, ok := s.take(c.Query("session_id")); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown session"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	var req transcribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	audio, err := base64.StdEncoding.DecodeString(req.InlineAudioBase64)
	if err != nil || len(audio) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid inline_audio_base64"})
	}
	f := streamFormat{SampleRate: req.SampleRate, Channels: req.Channels, Bits: req.Bits}
	if f.SampleRate <= 0 || f.Channels <= 0 || f.Bits <= 0 || f.Bits%8 != 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid audio format"})
	}

	size := len(audio)
	if req.MimeType == "audio/wav" && size >= wavHeaderSize {
		size -= wavHeaderSize
	}
	d := pcmDuration(size, f)
	slog.Info("batch transcribe", "mime_type", req.MimeType, "bytes", len(audio), "duration", d.String())
	return c.JSON(fiber.Map{"text": describe(d)})
}

func (s *Server) take(id string) (*streamSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	return sess, ok
}

func pcmDuration(bytes int, f streamFormat) time.Duration {
	frame := f.Channels * f.Bits / 8
	if frame <= 0 || f.SampleRate <= 0 {
		return 0
	}
	frames := bytes / frame
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

func describe(d time.Duration) string {
	return fmt.Sprintf("received %.2f seconds of audio", d.Seconds())
}
