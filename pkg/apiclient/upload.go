package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
)

// Upload posts a multipart form with one file part named field plus the
// given text fields.
func (c *Client) Upload(
	ctx context.Context,
	path, field, filename string,
	content io.Reader,
	fields map[string]string,
	out any,
) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("apiclient: write field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile(field, filepath.Base(filename))
	if err != nil {
		return fmt.Errorf("apiclient: create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("apiclient: copy file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("apiclient: close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	raw, _, err := c.send(req)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// File is a downloaded binary body.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Download fetches a raw body, reading the file name from
// Content-Disposition when present.
func (c *Client) Download(ctx context.Context, path string, query url.Values) (*File, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	raw, header, err := c.send(req)
	if err != nil {
		return nil, err
	}
	f := &File{ContentType: header.Get("Content-Type"), Data: raw}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		f.Name = params["filename"]
	}
	return f, nil
}
