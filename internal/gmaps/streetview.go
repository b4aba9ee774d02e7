package gmaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
)

const streetViewBase = "https://maps.googleapis.com/maps/api/streetview"

// Camera parameters for route preview images.
const (
	imageSize  = "400x240"
	imageFOV   = 90
	imagePitch = 10
)

// StreetView resolves street-level imagery. The metadata endpoint is free,
// so coverage is always checked before an image URL is handed out.
type StreetView struct {
	apiKey  string
	httpc   *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewStreetView creates a StreetView imagery adapter.
func NewStreetView(apiKey string, logger *zap.Logger) *StreetView {
	return &StreetView{
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		baseURL: streetViewBase,
		logger:  logger,
	}
}

type metadataResponse struct {
	Status string `json:"status"`
}

// Coverage reports whether street-level imagery exists at p. Transient
// failures are retried once before the error is returned.
func (s *StreetView) Coverage(ctx context.Context, p geo.Point) (bool, error) {
	endpoint := s.baseURL + "/metadata?" + s.query(p, -1)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		covered, retryable, err := s.fetchMetadata(ctx, endpoint)
		if err == nil {
			return covered, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return false, lastErr
}

func (s *StreetView) fetchMetadata(ctx context.Context, endpoint string) (covered, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, false, fmt.Errorf("create metadata request: %w", err)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return false, true, fmt.Errorf("street view metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return false, true, fmt.Errorf("street view metadata: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return false, false, fmt.Errorf("street view metadata: status %d", resp.StatusCode)
	}

	var decoded metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return false, false, fmt.Errorf("decode metadata response: %w", err)
	}
	return decoded.Status == "OK", false, nil
}

// ImageURL returns the static image URL for p with the camera aimed along
// headingDeg. Each call is a paid request when fetched, so callers check
// Coverage first.
func (s *StreetView) ImageURL(p geo.Point, headingDeg float64) string {
	return s.baseURL + "?" + s.query(p, headingDeg)
}

func (s *StreetView) query(p geo.Point, headingDeg float64) string {
	q := url.Values{}
	q.Set("size", imageSize)
	q.Set("location", fmt.Sprintf("%f,%f", p.Lat, p.Lng))
	q.Set("fov", fmt.Sprintf("%d", imageFOV))
	q.Set("pitch", fmt.Sprintf("%d", imagePitch))
	if headingDeg >= 0 {
		q.Set("heading", fmt.Sprintf("%.0f", headingDeg))
	}
	q.Set("key", s.apiKey)
	return q.Encode()
}
