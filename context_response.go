package aquilify

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ResponseWriter returns the underlying http.ResponseWriter. This is an
// escape hatch for integrations that take over the connection, such as
// WebSocket upgrades. Handlers writing through it directly should also call
// InhibitResponse so the router does not write the buffered response on top.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.responseWriter
}

// Headers returns the response headers.
func (c *Context) Headers() http.Header {
	return c.responseWriter.Header()
}

// SetHeader sets a response header, replacing any existing value.
func (c *Context) SetHeader(name string, value string) {
	c.responseWriter.Header().Set(name, value)
}

// AddHeader adds a response header, appending to any existing values.
func (c *Context) AddHeader(name string, value string) {
	c.responseWriter.Header().Add(name, value)
}

// SetCookie adds a Set-Cookie header to the response.
func (c *Context) SetCookie(cookie *http.Cookie) {
	http.SetCookie(c.responseWriter, cookie)
}

// Write appends to the buffered response body. The body is written to the
// client once the handler chain completes. Implements io.Writer.
func (c *Context) Write(p []byte) (int, error) {
	c.responseBody = append(c.responseBody, p...)
	return len(p), nil
}

// WriteString appends a string to the buffered response body.
func (c *Context) WriteString(s string) {
	c.responseBody = append(c.responseBody, s...)
}

// ResponseBody returns the buffered response body. Middleware can inspect
// or replace it after calling Next.
func (c *Context) ResponseBody() []byte {
	return c.responseBody
}

// SetResponseBody replaces the buffered response body.
func (c *Context) SetResponseBody(body []byte) {
	c.responseBody = body
}

// HasResponseBody reports whether any response body has been buffered.
func (c *Context) HasResponseBody() bool {
	return len(c.responseBody) != 0
}

// Text sends a plain text response.
func (c *Context) Text(text string) {
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.responseBody = append(c.responseBody[:0], text...)
}

// HTML sends an HTML response.
func (c *Context) HTML(html string) {
	c.SetHeader("Content-Type", "text/html; charset=utf-8")
	c.responseBody = append(c.responseBody[:0], html...)
}

// JSON sends a JSON response by marshalling the given value.
func (c *Context) JSON(value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.SetHeader("Content-Type", "application/json; charset=utf-8")
	c.responseBody = body
	return nil
}

// NoContent sends an empty 204 response.
func (c *Context) NoContent() {
	c.Status = http.StatusNoContent
	c.responseBody = nil
}

// Redirect sends a redirect response to the given URL. The status must be a
// 3xx redirection code.
func (c *Context) Redirect(status int, url string) error {
	if status < 300 || status > 399 {
		return fmt.Errorf("invalid redirect status: %d", status)
	}
	c.Status = status
	c.SetHeader("Location", url)
	return nil
}

// File sends the contents of a file. The content type is derived from the
// file extension. ETag and Last-Modified headers are set, and conditional
// requests answered with 304 Not Modified where they match.
func (c *Context) File(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return ErrNotFound
	}

	modTime := info.ModTime().UTC().Truncate(time.Second)
	etag := `"` + strconv.FormatInt(modTime.Unix(), 16) + "-" +
		strconv.FormatInt(info.Size(), 16) + `"`

	c.SetHeader("ETag", etag)
	c.SetHeader("Last-Modified", modTime.Format(http.TimeFormat))

	if contentType := mime.TypeByExtension(filepath.Ext(path)); contentType != "" {
		c.SetHeader("Content-Type", contentType)
	} else {
		c.SetHeader("Content-Type", "application/octet-stream")
	}

	if c.isFileUnmodified(etag, modTime) {
		c.Status = http.StatusNotModified
		c.responseBody = nil
		return nil
	}

	body, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	c.responseBody = body

	return nil
}

func (c *Context) isFileUnmodified(etag string, modTime time.Time) bool {
	if ifNoneMatch := c.request.Header.Get("If-None-Match"); ifNoneMatch != "" {
		return ifNoneMatch == etag
	}
	if ifModifiedSince := c.request.Header.Get("If-Modified-Since"); ifModifiedSince != "" {
		since, err := http.ParseTime(ifModifiedSince)
		if err == nil && !modTime.After(since) {
			return true
		}
	}
	return false
}

// InhibitResponse marks the response as handled outside the buffered
// response machinery. The router will not write status or body for this
// request. Used when the connection is hijacked or upgraded.
func (c *Context) InhibitResponse() {
	c.responseInhibited = true
}

// flush writes the buffered response to the client. Called once by the
// router after the chain and any error handlers have run.
func (c *Context) flush() {
	if c.responseInhibited {
		return
	}

	status := c.Status
	if status == 0 {
		status = http.StatusOK
	}

	if len(c.responseBody) != 0 {
		c.responseWriter.Header().Set("Content-Length", strconv.Itoa(len(c.responseBody)))
	}
	c.responseWriter.WriteHeader(status)

	if len(c.responseBody) != 0 && c.method != string(Head) {
		if _, err := c.responseWriter.Write(c.responseBody); err != nil {
			// the client is gone; nothing sensible left to do
			_ = err
		}
	}
}
