package transcriber

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const speechAPIEndpointPort = 443

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
}

// CloudSpeechBackend maps the chunked protocol onto one StreamingRecognize
// stream per session and the buffered protocol onto Recognize.
type CloudSpeechBackend struct {
	projectID       string
	credentialsJSON string
	language        string
	location        string
	model           string

	mu      sync.Mutex
	client  *speech.Client
	streams map[string]*cloudSpeechStream
}

type cloudSpeechStream struct {
	stream speechpb.Speech_StreamingRecognizeClient
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	finals []string
	err    error
}

func NewCloudSpeechBackend(cfg CloudSpeechConfig) *CloudSpeechBackend {
	return &CloudSpeechBackend{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		language:        cfg.Language,
		location:        strings.TrimSpace(cfg.Location),
		model:           strings.TrimSpace(cfg.Model),
		streams:         make(map[string]*cloudSpeechStream),
	}
}

func (b *CloudSpeechBackend) ensureClient(ctx context.Context) (*speech.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(b.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}
	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if b.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", b.location, speechAPIEndpointPort)))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, classifyCloudSpeechError("create client", err)
	}
	b.client = client
	slog.Info("cloud speech client initialized", "location", b.location, "model", b.model)
	return client, nil
}

func (b *CloudSpeechBackend) recognizer() string {
	return fmt.Sprintf("projects/%s/locations/%s/recognizers/_", b.projectID, b.location)
}

func (b *CloudSpeechBackend) StartSession(ctx context.Context, f transcriber.AudioFormat) (string, error) {
	client, err := b.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	// The stream outlives the call that opens it; it ends on stop or abort.
	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := client.StreamingRecognize(streamCtx)
	if err != nil {
		cancel()
		return "", classifyCloudSpeechError("open stream", err)
	}
	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		Recognizer: b.recognizer(),
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Model:         b.model,
					LanguageCodes: []string{b.language},
					DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
						ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
							Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
							SampleRateHertz:   int32(f.SampleRate),
							AudioChannelCount: int32(f.Channels),
						},
					},
					Features: &speechpb.RecognitionFeatures{},
				},
			},
		},
	})
	if err != nil {
		_ = stream.CloseSend()
		cancel()
		return "", classifyCloudSpeechError("send stream config", err)
	}

	id := uuid.NewString()
	s := &cloudSpeechStream{stream: stream, cancel: cancel, done: make(chan struct{})}
	go s.receive(id)

	b.mu.Lock()
	b.streams[id] = s
	b.mu.Unlock()
	slog.Info("cloud speech stream initialized", "session_id", id)
	return id, nil
}

func (s *cloudSpeechStream) receive(sessionID string) {
	defer close(s.done)
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
				return
			}
			slog.Warn("cloud speech receive loop ended", "error", err, "session_id", sessionID)
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
		for _, result := range resp.GetResults() {
			if !result.GetIsFinal() || len(result.GetAlternatives()) == 0 {
				continue
			}
			s.mu.Lock()
			s.finals = append(s.finals, result.GetAlternatives()[0].GetTranscript())
			s.mu.Unlock()
		}
	}
}

func (b *CloudSpeechBackend) lookup(sessionID string, remove bool) (*cloudSpeechStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.streams[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown session %q", transcriber.ErrProtocol, sessionID)
	}
	if remove {
		delete(b.streams, sessionID)
	}
	return s, nil
}

func (b *CloudSpeechBackend) SendChunk(_ context.Context, sessionID string, chunk []byte) error {
	s, err := b.lookup(sessionID, false)
	if err != nil {
		return err
	}
	err = s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_Audio{Audio: chunk},
	})
	if err != nil {
		return classifyCloudSpeechError("send audio", err)
	}
	return nil
}

func (b *CloudSpeechBackend) StopAndTranscribe(ctx context.Context, sessionID string) (string, error) {
	s, err := b.lookup(sessionID, true)
	if err != nil {
		return "", err
	}
	defer s.cancel()

	if err := s.stream.CloseSend(); err != nil {
		return "", classifyCloudSpeechError("close stream", err)
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		return "", fmt.Errorf("wait for transcript: %w: %w", transcriber.ErrTransport, ctx.Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", classifyCloudSpeechError("receive", s.err)
	}
	return joinTranscripts(b.language, s.finals), nil
}

func (b *CloudSpeechBackend) AbortSession(_ context.Context, sessionID string) error {
	s, err := b.lookup(sessionID, true)
	if err != nil {
		return err
	}
	_ = s.stream.CloseSend()
	s.cancel()
	return nil
}

func (b *CloudSpeechBackend) TranscribeBatch(ctx context.Context, req transcriber.BatchRequest) (string, error) {
	content, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return "", fmt.Errorf("decode audio payload: %w", err)
	}
	client, err := b.ensureClient(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: b.recognizer(),
		Config: &speechpb.RecognitionConfig{
			Model:         b.model,
			LanguageCodes: []string{b.language},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: &speechpb.RecognitionFeatures{},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: content},
	})
	if err != nil {
		return "", classifyCloudSpeechError("recognize", err)
	}
	var parts []string
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		parts = append(parts, result.GetAlternatives()[0].GetTranscript())
	}
	return joinTranscripts(b.language, parts), nil
}

// Shutdown closes open streams and the client. It is called by the injector.
func (b *CloudSpeechBackend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.streams {
		_ = s.stream.CloseSend()
		s.cancel()
		delete(b.streams, id)
	}
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

// joinTranscripts concatenates final segments. Languages written without
// word spacing are joined directly.
func joinTranscripts(language string, parts []string) string {
	sep := " "
	switch strings.ToLower(strings.SplitN(language, "-", 2)[0]) {
	case "ja", "zh", "th":
		sep = ""
	}
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return strings.Join(trimmed, sep)
}

func classifyCloudSpeechError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("cloud speech %s: %w: %w", op, transcriber.ErrTransport, err)
	}
	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return fmt.Errorf("cloud speech %s: %w: %s", op, transcriber.ErrProtocol, st.Message())
	default:
		return fmt.Errorf("cloud speech %s: %w", op, &transcriber.ProviderError{
			Provider: "cloudspeech",
			Code:     st.Code().String(),
			Err:      err,
		})
	}
}
