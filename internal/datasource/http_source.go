package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	httpSourceName  = "http"
	maxDocumentSize = 32 << 20
)

// HTTPSource downloads documents from the timing vendor's result pages
type HTTPSource struct {
	client *RateLimitedHTTPClient
	urls   map[DocumentKind]string
	logger *logrus.Logger
}

// NewHTTPSource creates a source downloading the given document URLs
func NewHTTPSource(client *RateLimitedHTTPClient, urls map[DocumentKind]string, logger *logrus.Logger) *HTTPSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPSource{client: client, urls: urls, logger: logger}
}

// Name returns the name of the source
func (s *HTTPSource) Name() string {
	return httpSourceName
}

// Load downloads and decodes the document of the given kind
func (s *HTTPSource) Load(ctx context.Context, kind DocumentKind) (string, error) {
	url, ok := s.urls[kind]
	if !ok || url == "" {
		return "", NewDataSourceError(httpSourceName, ErrCodeNotFound, fmt.Sprintf("no %s document configured", kind), ErrNotFound)
	}

	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return "", NewDataSourceError(httpSourceName, ErrCodeNetworkError, "failed to fetch "+url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", NewDataSourceError(httpSourceName, ErrCodeNotFound, url, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", NewDataSourceError(httpSourceName, ErrCodeRateLimitExceeded, url, nil)
	case resp.StatusCode >= 500:
		return "", NewDataSourceError(httpSourceName, ErrCodeServerError, fmt.Sprintf("%s returned %d", url, resp.StatusCode), ErrServerError)
	case resp.StatusCode >= 400:
		return "", NewDataSourceError(httpSourceName, ErrCodeUnknown, fmt.Sprintf("%s returned %d", url, resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", NewDataSourceError(httpSourceName, ErrCodeNetworkError, "failed to read "+url, err)
	}

	s.logger.WithFields(logrus.Fields{
		"kind":  kind,
		"url":   url,
		"bytes": len(data),
	}).Debug("Downloaded document")

	name := url
	if resp.Header.Get("Content-Type") == "application/pdf" {
		name += ".pdf"
	}
	text, err := DecodeDocument(name, data)
	if err != nil {
		return "", NewDataSourceError(httpSourceName, ErrCodeInvalidData, url, err)
	}
	return text, nil
}
