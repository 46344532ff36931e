package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPRequest is a transport-agnostic request description
type HTTPRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse is a fully-read response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	// FinalURL is the URL of the last request in the redirect chain
	FinalURL  string
	Truncated bool
}

// HTTPClient wraps net/http.Client with shared defaults and bounded body reads
type HTTPClient struct {
	client     *http.Client
	config     HTTPClientConfig
	logger     zerolog.Logger
	bufferPool sync.Pool
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config HTTPClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	logger = logger.With().Str("component", "HTTPClient").Logger()

	transport := config.Transport
	if transport == nil {
		built, err := buildTransport(config, logger)
		if err != nil {
			return nil, err
		}
		transport = built
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}

	if !config.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if config.MaxRedirects > 0 {
		maxRedirects := config.MaxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
	}

	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("insecure_skip_verify", config.InsecureSkipVerify).
		Bool("follow_redirects", config.FollowRedirects).
		Int("max_redirects", config.MaxRedirects).
		Bool("http2_enabled", config.EnableHTTP2).
		Msg("HTTP client created")

	return &HTTPClient{
		client: client,
		config: config,
		logger: logger,
		bufferPool: sync.Pool{
			New: func() interface{} {
				b := make([]byte, 0, 32*1024)
				return &b
			},
		},
	}, nil
}

// Config returns the configuration the client was built with
func (c *HTTPClient) Config() HTTPClientConfig {
	return c.config
}

func buildTransport(config HTTPClientConfig, logger zerolog.Logger) (*http.Transport, error) {
	transport := &http.Transport{
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: config.ExpectContinueTimeout,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
		Proxy: http.ProxyFromEnvironment,
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, common.WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Info().Str("proxy", config.Proxy).Msg("HTTP client configured with proxy")
	}

	return transport, nil
}

// Do performs a single request. It never retries.
func (c *HTTPClient) Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, common.WrapError(err, "failed to create HTTP request")
	}

	for key, value := range c.config.CustomHeaders {
		httpReq.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	// request-specific headers win over defaults
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, common.NewNetworkError(req.URL, "request failed", err)
	}
	defer resp.Body.Close()

	bodyBytes, truncated, err := c.readBody(resp.Body)
	if err != nil {
		return nil, common.NewNetworkError(req.URL, "failed to read response body", err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       bodyBytes,
		FinalURL:   finalURL,
		Truncated:  truncated,
	}, nil
}

func (c *HTTPClient) readBody(r io.Reader) ([]byte, bool, error) {
	bufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufPtr)
	buf := bytes.NewBuffer((*bufPtr)[:0])

	limit := int64(c.config.MaxContentSize)
	var src io.Reader = r
	if limit > 0 {
		// one extra byte tells us the body was cut
		src = io.LimitReader(r, limit+1)
	}
	if _, err := io.Copy(buf, src); err != nil {
		return nil, false, err
	}

	truncated := false
	n := buf.Len()
	if limit > 0 && int64(n) > limit {
		n = int(limit)
		truncated = true
	}

	out := make([]byte, n)
	copy(out, buf.Bytes()[:n])
	return out, truncated, nil
}

// FetchContent GETs url and requires a 200 response
func (c *HTTPClient) FetchContent(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Do(ctx, &HTTPRequest{URL: url, Method: http.MethodGet})
	if err != nil {
		c.logger.Error().Err(err).Str("url", url).Msg("Failed to execute HTTP request")
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Str("url", url).Int("status_code", resp.StatusCode).Msg("Received non-OK HTTP status")
		errorBody := resp.Body
		if len(errorBody) > 1024 {
			errorBody = errorBody[:1024]
		}
		return nil, common.NewHTTPErrorWithURL(resp.StatusCode, string(errorBody), url)
	}

	if resp.Truncated {
		c.logger.Warn().Str("url", url).Int("max_content_size", c.config.MaxContentSize).Msg("Content size exceeds limit, truncated")
	}
	return resp.Body, nil
}
