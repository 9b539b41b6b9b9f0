package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Remote is a Recognizer that posts the enhanced image to an inference
// sidecar (for example an EasyOCR service) and reads back its detections.
type Remote struct {
	url    *url.URL
	client *http.Client
}

// NewRemote returns a client for the sidecar at baseURL. A nil client
// means http.DefaultClient.
func NewRemote(baseURL string, client *http.Client) (*Remote, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid recognizer url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid recognizer url %q: scheme and host required", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{url: u, client: client}, nil
}

type remoteDetection struct {
	Box        [][2]float64 `json:"box"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
}

type remoteResponse struct {
	Detections []remoteDetection `json:"detections"`
}

// Recognize uploads img as PNG to {url}/readtext.
func (r *Remote) Recognize(ctx context.Context, img *image.Gray) ([]Detection, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "enhanced.png")
	if err != nil {
		return nil, fmt.Errorf("%w: create form: %v", ErrRecognition, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("%w: write form: %v", ErrRecognition, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: close multipart writer: %v", ErrRecognition, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url.JoinPath("/readtext").String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrRecognition, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %w", ErrRecognition, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: server response status code: %d, body: %s", ErrRecognition, resp.StatusCode, msg)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response body: %v", ErrRecognition, err)
	}
	dets := make([]Detection, 0, len(out.Detections))
	for i, d := range out.Detections {
		if len(d.Box) != 4 {
			return nil, fmt.Errorf("%w: detection %d has %d corners, want 4", ErrRecognition, i, len(d.Box))
		}
		var box [4]Point
		for k, p := range d.Box {
			box[k] = Point{X: p[0], Y: p[1]}
		}
		dets = append(dets, Detection{Box: box, Text: d.Text, Confidence: d.Confidence})
	}
	return dets, nil
}

// CheckHealth calls GET {url}/status.
func (r *Remote) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url.JoinPath("/status").String(), nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recognizer unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// Name identifies the backend in status output.
func (r *Remote) Name() string { return "remote" }
