// Package codegen is a client for a remote generation service that writes the
// markup of a section from its data and effective style. Output is not
// reproducible, so exports rendered through it are flagged non-deterministic.
package codegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

var ErrEmptyOutput = errors.New("generation returned no markup")

// Client calls the generation service's render endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: 60 * time.Second,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("codegen error: status=%d body=%s", e.StatusCode, e.Body)
}

type sectionPayload struct {
	ID   string       `json:"id"`
	Type string       `json:"type"`
	Data section.Data `json:"data"`
}

type renderRequest struct {
	Model   string         `json:"model,omitempty"`
	Prompt  string         `json:"prompt"`
	Section sectionPayload `json:"section"`
	Style   theme.Style    `json:"style"`
}

type renderResponse struct {
	Output string `json:"output"`
}

func (c *Client) Name() string { return "remote" }

func (c *Client) Deterministic() bool { return false }

// RenderSection asks the service for the markup of one section.
func (c *Client) RenderSection(ctx context.Context, in section.RenderInput) ([]byte, error) {
	prompt, err := Prompt(in)
	if err != nil {
		return nil, err
	}
	req := renderRequest{
		Model:   c.Model,
		Prompt:  prompt,
		Section: sectionPayload{ID: in.ID, Type: in.Type, Data: in.Data},
		Style:   in.Style,
	}
	var resp renderResponse
	if err := c.do(ctx, http.MethodPost, "v1/render", req, &resp); err != nil {
		return nil, err
	}
	out := StripFences(resp.Output)
	if out == "" {
		return nil, fmt.Errorf("%w: %s section %s", ErrEmptyOutput, in.Type, in.ID)
	}
	return []byte(out), nil
}

// Prompt builds the instruction sent along with the structured payload.
func Prompt(in section.RenderInput) (string, error) {
	style, err := json.Marshal(in.Style)
	if err != nil {
		return "", fmt.Errorf("encode style: %w", err)
	}
	data, err := json.Marshal(in.Data)
	if err != nil {
		return "", fmt.Errorf("encode section data: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Generate modern, premium HTML markup for a %s section. ", in.Type)
	b.WriteString("Use Tailwind CSS utility classes for styling. ")
	fmt.Fprintf(&b, "Theme context: %s. Section data: %s. ", style, data)
	b.WriteString("Return only the markup of the section body, without <html>, <head> or <body> tags, and without explanations or markdown formatting.")
	return b.String(), nil
}

var fence = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")

// StripFences removes markdown code fences models tend to wrap output in.
func StripFences(s string) string {
	return strings.TrimSpace(fence.ReplaceAllString(s, ""))
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
