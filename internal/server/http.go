package server

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
)

// MaxBodySize is the largest request body handed to a handler. Longer
// bodies are truncated.
const MaxBodySize = 1024

// ReadHTTPRequest reads the request line and headers from r.
func ReadHTTPRequest(r *bufio.Reader, remoteAddr string) (*http.Request, error) {
	req, err := http.ReadRequest(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTTP request: %w", err)
	}
	req.RemoteAddr = remoteAddr
	return req, nil
}

// ReadBody reads the request body, keeping at most MaxBodySize bytes.
func ReadBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	defer req.Body.Close()

	body, err := io.ReadAll(io.LimitReader(req.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > MaxBodySize {
		logging.Warn("Request body truncated",
			zap.String("remote_addr", req.RemoteAddr),
			zap.String("path", req.URL.Path),
			zap.Int("limit", MaxBodySize))
		body = body[:MaxBodySize]
		logging.LogRawBytes("Truncated request body", body)
		// Drain some of the rest so the client is not reset mid-send.
		_, _ = io.CopyN(io.Discard, req.Body, 64*MaxBodySize)
	}
	return body, nil
}

// LogHTTPRequestDetails logs all details of an HTTP request
func LogHTTPRequestDetails(req *http.Request, route string) {
	headers := make(map[string]string)
	for key, values := range req.Header {
		headers[key] = strings.Join(values, ", ")
	}

	logging.LogHTTPRequest(req.RemoteAddr, req.Method, req.URL.Path, headers)

	logging.Debug("Request dispatched",
		zap.String("remote_addr", req.RemoteAddr),
		zap.String("route", route),
		zap.String("host", req.Host),
		zap.Int64("content_length", req.ContentLength),
		zap.String("user_agent", req.Header.Get("User-Agent")),
	)
}
