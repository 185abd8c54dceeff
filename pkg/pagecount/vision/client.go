package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrNotConfigured      = errors.New("vision api key is empty")
	ErrIncompleteAnalysis = errors.New("vision analysis did not cover every page")
)

// Client is a minimal Google Cloud Vision client for the synchronous
// files:annotate endpoint. It counts page segments of a PDF.
type Client struct {
	APIKey  string
	BaseURL string
	httpDo  *http.Client
}

func New(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://vision.googleapis.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: baseURL,
		httpDo: &http.Client{
			Timeout: timeout,
		},
	}
}

type inputConfig struct {
	// Content is sent base64-encoded by encoding/json.
	Content  []byte `json:"content"`
	MimeType string `json:"mimeType"`
}

type feature struct {
	Type string `json:"type"`
}

type fileRequest struct {
	InputConfig inputConfig `json:"inputConfig"`
	Features    []feature   `json:"features"`
}

type annotateFilesRequest struct {
	Requests []fileRequest `json:"requests"`
}

type statusProto struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type pageResponse struct {
	FullTextAnnotation *struct {
		Pages []json.RawMessage `json:"pages"`
	} `json:"fullTextAnnotation"`
	Error   *statusProto `json:"error"`
	Context struct {
		PageNumber int `json:"pageNumber"`
	} `json:"context"`
}

type fileResponse struct {
	Responses  []pageResponse `json:"responses"`
	TotalPages int            `json:"totalPages"`
	Error      *statusProto   `json:"error"`
}

type annotateFilesResponse struct {
	Responses []fileResponse `json:"responses"`
}

// Segments sends the PDF for DOCUMENT_TEXT_DETECTION and returns the number
// of page segments in the full-text annotations. Pages without recognisable
// text contribute no segments.
func (c *Client) Segments(ctx context.Context, data []byte) (int, error) {
	if c.APIKey == "" {
		return 0, ErrNotConfigured
	}
	reqBody := annotateFilesRequest{
		Requests: []fileRequest{{
			InputConfig: inputConfig{Content: data, MimeType: "application/pdf"},
			Features:    []feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/files:annotate?key=%s", c.BaseURL, url.QueryEscape(c.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errMap map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errMap)
		return 0, fmt.Errorf("vision http %d: %v", resp.StatusCode, errMap)
	}
	var out annotateFilesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode vision response: %w", err)
	}
	return countSegments(out)
}

func countSegments(out annotateFilesResponse) (int, error) {
	if len(out.Responses) == 0 {
		return 0, errors.New("vision returned no file responses")
	}
	file := out.Responses[0]
	if file.Error != nil {
		return 0, fmt.Errorf("vision error %d: %s", file.Error.Code, file.Error.Message)
	}
	segments := 0
	for _, p := range file.Responses {
		if p.Error != nil {
			return 0, fmt.Errorf("vision page %d error %d: %s", p.Context.PageNumber, p.Error.Code, p.Error.Message)
		}
		if p.FullTextAnnotation != nil {
			segments += len(p.FullTextAnnotation.Pages)
		}
	}
	// the sync endpoint only processes the first pages of a file
	if file.TotalPages > len(file.Responses) {
		return 0, fmt.Errorf("%w: %d of %d pages", ErrIncompleteAnalysis, len(file.Responses), file.TotalPages)
	}
	return segments, nil
}
