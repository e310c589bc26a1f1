package detector

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"google.golang.org/api/option"
)

// GoogleService asks the Google Cloud Translation API which language a text
// is written in.
type GoogleService struct {
	credentials string
	opts        []option.ClientOption
}

// NewGoogleService returns a detector using the credentials file at
// credentials, or application default credentials when it is empty. Extra
// client options are passed to the Translation client.
func NewGoogleService(credentials string, opts ...option.ClientOption) *GoogleService {
	return &GoogleService{credentials: credentials, opts: opts}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Detect(ctx context.Context, text string) (*Guess, error) {
	result := &Guess{Service: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if text == "" {
		return result, nil
	}

	opts := append([]option.ClientOption{}, s.opts...)
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create client: %v", err)
		return result, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	detections, err := client.DetectLanguage(ctx, []string{text})
	if err != nil {
		result.Error = fmt.Sprintf("detection failed: %v", err)
		return result, fmt.Errorf("detection failed: %w", err)
	}

	if len(detections) == 0 || len(detections[0]) == 0 {
		return result, nil
	}

	best := detections[0][0]
	for _, d := range detections[0][1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}

	base, _ := best.Language.Base()
	result.Code = base.String()
	result.Confidence = best.Confidence
	return result, nil
}
