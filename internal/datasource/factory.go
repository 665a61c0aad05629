package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/config"
	"github.com/yesmonga/karting-sub000/internal/parser"
)

// SourceType represents the type of document source
type SourceType string

const (
	// FileSourceType reads local files
	FileSourceType SourceType = "file"
	// HTTPSourceType downloads documents
	HTTPSourceType SourceType = "http"
)

// DetectSourceType returns the source type serving a document location
func DetectSourceType(location string) SourceType {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return HTTPSourceType
	}
	return FileSourceType
}

// Factory creates DocumentSource implementations based on configuration
type Factory struct {
	logger     *logrus.Logger
	baseDir    string
	httpClient *RateLimitedHTTPClient
}

// NewFactory creates a new document source factory
func NewFactory(cfg config.DataSourceConfig, logger *logrus.Logger) *Factory {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.Timeout > 0 {
		httpCfg.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries > 0 {
		httpCfg.MaxRetries = cfg.MaxRetries
	}
	if cfg.RateLimit > 0 {
		httpCfg.RateLimit = cfg.RateLimit
	}
	if cfg.CircuitBreakerMax > 0 {
		httpCfg.CircuitBreakerMax = cfg.CircuitBreakerMax
	}
	if cfg.UserAgent != "" {
		httpCfg.UserAgent = cfg.UserAgent
	}

	return &Factory{
		logger:     logger,
		baseDir:    cfg.BaseDir,
		httpClient: NewRateLimitedHTTPClient(httpCfg, logger),
	}
}

// HTTPClient returns the shared rate-limited client
func (f *Factory) HTTPClient() *RateLimitedHTTPClient {
	return f.httpClient
}

// FromLocations builds a source serving each kind from its location, a
// file path or an http(s) URL
func (f *Factory) FromLocations(locations map[DocumentKind]string) (DocumentSource, error) {
	files := make(map[DocumentKind]string)
	urls := make(map[DocumentKind]string)
	for kind, location := range locations {
		if location == "" {
			continue
		}
		switch DetectSourceType(location) {
		case HTTPSourceType:
			urls[kind] = location
		default:
			files[kind] = location
		}
	}
	if len(files) == 0 && len(urls) == 0 {
		return nil, fmt.Errorf("no document location given")
	}

	composite := &CompositeSource{sources: make(map[DocumentKind]DocumentSource)}
	fileSource := NewFileSource(f.baseDir, files)
	httpSource := NewHTTPSource(f.httpClient, urls, f.logger)
	for kind := range files {
		composite.sources[kind] = fileSource
	}
	for kind := range urls {
		composite.sources[kind] = httpSource
	}
	return composite, nil
}

// CompositeSource routes each document kind to its own source
type CompositeSource struct {
	sources map[DocumentKind]DocumentSource
}

// Name returns the names of the routed sources
func (c *CompositeSource) Name() string {
	seen := make(map[string]bool)
	var names []string
	for _, kind := range DocumentKinds {
		if src, ok := c.sources[kind]; ok && !seen[src.Name()] {
			seen[src.Name()] = true
			names = append(names, src.Name())
		}
	}
	return strings.Join(names, "+")
}

// Load delegates to the source configured for kind
func (c *CompositeSource) Load(ctx context.Context, kind DocumentKind) (string, error) {
	src, ok := c.sources[kind]
	if !ok {
		return "", NewDataSourceError("composite", ErrCodeNotFound, fmt.Sprintf("no %s document configured", kind), ErrNotFound)
	}
	return src.Load(ctx, kind)
}

// LoadDocuments loads the three documents from src. A missing document is
// left empty but at least one must be present.
func LoadDocuments(ctx context.Context, src DocumentSource) (parser.Documents, error) {
	var docs parser.Documents
	loaded := 0
	for _, kind := range DocumentKinds {
		text, err := src.Load(ctx, kind)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return parser.Documents{}, fmt.Errorf("failed to load %s document: %w", kind, err)
		}

		switch kind {
		case KindRanking:
			docs.Ranking = text
		case KindPitStops:
			docs.PitStops = text
		case KindLapHistory:
			docs.LapHistory = text
		}
		loaded++
	}
	if loaded == 0 {
		return parser.Documents{}, NewDataSourceError(src.Name(), ErrCodeNotFound, "no document available", ErrNotFound)
	}
	return docs, nil
}
