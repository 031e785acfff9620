package llmhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Auth is a single request header carrying credentials.
type Auth struct {
	Header string
	Value  string
}

func Bearer(token string) Auth {
	return Auth{Header: "Authorization", Value: "Bearer " + token}
}

func APIKey(key string) Auth {
	return Auth{Header: "api-key", Value: key}
}

func (a Auth) apply(req *http.Request) {
	if a.Header != "" && a.Value != "" {
		req.Header.Set(a.Header, a.Value)
	}
}

// Client posts JSON and multipart requests to one vendor base URL.
type Client struct {
	vendor     string
	baseURL    string
	httpClient *http.Client
}

func New(vendor, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		vendor:     vendor,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Vendor() string {
	return c.vendor
}

func (c *Client) PostJSON(ctx context.Context, path string, auth Auth, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	auth.apply(req)

	return c.do(req, out, operation)
}

type FormFile struct {
	Field    string
	Filename string
	MIMEType string
	Data     []byte
}

// Form is a multipart body. Fields keep their order on the wire.
type Form struct {
	Fields [][2]string
	Files  []FormFile
}

func (f *Form) Add(name, value string) {
	f.Fields = append(f.Fields, [2]string{name, value})
}

func (c *Client) PostMultipart(ctx context.Context, path string, auth Auth, form Form, out any, operation string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, field := range form.Fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("write %s form field %s: %w", operation, field[0], err)
		}
	}
	for _, file := range form.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, file.Field, file.Filename))
		mimeType := file.MIMEType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		header.Set("Content-Type", mimeType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create %s form file: %w", operation, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return fmt.Errorf("write %s form file: %w", operation, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close %s form: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	auth.apply(req)

	return c.do(req, out, operation)
}

func (c *Client) do(req *http.Request, out any, operation string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request: %w", c.vendor, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.statusError(operation, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", c.vendor, operation, err)
	}
	return nil
}

func (c *Client) statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Vendor:     c.vendor,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
