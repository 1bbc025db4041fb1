package aquilify

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Request returns the underlying http.Request. This is an escape hatch for
// integrations that need the raw request; most handlers should use the
// context's accessors instead.
func (c *Context) Request() *http.Request {
	return c.request
}

// URL returns the request URL.
func (c *Context) URL() *url.URL {
	return c.request.URL
}

// Query returns the value of a query string parameter by name. Returns an
// empty string if the parameter is not present.
func (c *Context) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

// QueryValues returns all query string parameters.
func (c *Context) QueryValues() url.Values {
	return c.request.URL.Query()
}

// RequestHeader returns the value of a request header by name.
func (c *Context) RequestHeader(name string) string {
	return c.request.Header.Get(name)
}

// RequestHeaders returns the request headers.
func (c *Context) RequestHeaders() http.Header {
	return c.request.Header
}

// Cookie returns the named request cookie, or http.ErrNoCookie if absent.
func (c *Context) Cookie(name string) (*http.Cookie, error) {
	return c.request.Cookie(name)
}

// Body returns the request body. The body is read once and buffered, so
// Body may be called any number of times along the chain.
func (c *Context) Body() ([]byte, error) {
	if c.requestBodyRead {
		return c.requestBody, nil
	}
	if c.request.Body == nil {
		c.requestBodyRead = true
		return nil, nil
	}

	body, err := io.ReadAll(c.request.Body)
	if err != nil {
		return nil, err
	}
	_ = c.request.Body.Close()

	c.requestBody = body
	c.requestBodyRead = true

	return body, nil
}

// UnmarshalJSONBody parses the request body as JSON into the given value.
// Returns an error if the body is empty or is not valid JSON.
func (c *Context) UnmarshalJSONBody(into any) error {
	body, err := c.Body()
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("request has no body")
	}
	return json.Unmarshal(body, into)
}

// ContentType returns the request's Content-Type header without parameters
// such as charset.
func (c *Context) ContentType() string {
	contentType := c.request.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i != -1 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}

// ClientIP returns the client address for the request. X-Forwarded-For and
// X-Real-IP headers take precedence over the connection's remote address,
// so the reported address is only trustworthy behind a proxy that sets
// them.
func (c *Context) ClientIP() string {
	if forwardedFor := c.request.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		if i := strings.IndexByte(forwardedFor, ','); i != -1 {
			forwardedFor = forwardedFor[:i]
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.request.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}

	host, _, err := net.SplitHostPort(c.request.RemoteAddr)
	if err != nil {
		return c.request.RemoteAddr
	}
	return host
}

// Host returns the host the request was directed to.
func (c *Context) Host() string {
	return c.request.Host
}
