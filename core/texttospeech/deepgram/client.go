package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/voicepipe/voicepipe-core/core/audio"
	"github.com/voicepipe/voicepipe-core/core/texttospeech"
)

const defaultEndpoint = "https://api.deepgram.com/v1/speak"

// SynthesisClient produces spoken audio for short text prompts over the
// one-shot REST endpoint. Companded output encodings come back as raw bytes
// with no container and are expanded to linear PCM before they are returned,
// so callers can always hand the result straight to a playback sink.
type SynthesisClient struct {
	endpoint string
	apiKey   string
	voice    string
}

func NewSynthesisClient(voice string, opts ...ClientOption) (*SynthesisClient, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY not set")
	}

	client := &SynthesisClient{
		endpoint: defaultEndpoint,
		apiKey:   apiKey,
		voice:    voice,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type ClientOption func(*SynthesisClient)

// WithEndpoint points the client at a custom speak-compatible endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *SynthesisClient) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithAPIKey overrides the key picked up from the environment.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *SynthesisClient) {
		if apiKey != "" {
			c.apiKey = apiKey
		}
	}
}

// Synthesize fetches audio for the given text and returns playable linear
// PCM along with the encoding it is in.
func (c *SynthesisClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) ([]byte, audio.EncodingInfo, error) {
	options := texttospeech.SynthesisOptions{
		EncodingInfo: audio.GetDefaultEncodingInfo(),
		Speed:        1.0,
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	encoding := options.EncodingInfo

	params := url.Values{}
	params.Set("model", c.voice)
	params.Set("encoding", encoding.Format.Name())
	params.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	if options.Speed != 1.0 {
		params.Set("speed", strconv.FormatFloat(options.Speed, 'f', -1, 64))
	}

	requestBody, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		return nil, encoding, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"?"+params.Encode(), bytes.NewBuffer(requestBody))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		return nil, encoding, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	span.SetAttributes(attribute.String("request.url", req.URL.String()))
	client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
			return operationName + " " + request.URL.Path
		}),
	)}
	resp, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, encoding, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, readErr := io.ReadAll(resp.Body); readErr == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		return nil, encoding, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading audio data: %w", err)
		span.RecordError(err)
		return nil, encoding, err
	}

	return expandToPCM(data, encoding), encoding, nil
}

// expandToPCM converts companded response bytes to linear16. Linear PCM
// passes through untouched.
func expandToPCM(data []byte, encoding audio.EncodingInfo) []byte {
	switch encoding.Format {
	case audio.EncodingMulaw:
		return audio.DecodeMulaw(data)
	case audio.EncodingALaw:
		return audio.DecodeALaw(data)
	default:
		return data
	}
}
