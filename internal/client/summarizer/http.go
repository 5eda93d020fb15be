package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/netx"
)

const processTextPath = "/process-text"

type processTextRequest struct {
	Text         string `json:"text"`
	NumSentences int    `json:"num_sentences"`
}

type processTextResponse struct {
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// HTTPSummarizer calls POST {base}/process-text.
type HTTPSummarizer struct {
	baseURL string
	client  *http.Client
}

var _ Summarizer = (*HTTPSummarizer)(nil)

func NewHTTPSummarizer(baseURL string, timeout time.Duration) *HTTPSummarizer {
	return &HTTPSummarizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  netx.NewHTTPClient(timeout),
	}
}

func (s *HTTPSummarizer) Summarize(ctx context.Context, text string, sentences int) (string, error) {
	text, sentences, err := normalize(text, sentences)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(processTextRequest{Text: text, NumSentences: sentences})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+processTextPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", wrapErr("process text", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("process text: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out processTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", wrapErr("decode summary", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("process text: %s", out.Error)
	}
	return out.Summary, nil
}
