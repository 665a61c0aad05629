package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rsc.io/pdf"

	"github.com/yesmonga/karting-sub000/internal/config"
)

func testClientConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cfg.RateLimit = 1000
	cfg.CircuitBreakerMax = 2
	return cfg
}

func TestParseDocumentKind(t *testing.T) {
	tests := []struct {
		input   string
		want    DocumentKind
		wantErr bool
	}{
		{"ranking", KindRanking, false},
		{"classement", KindRanking, false},
		{"pitstops", KindPitStops, false},
		{"arrets", KindPitStops, false},
		{"laps", KindLapHistory, false},
		{"lap_history", KindLapHistory, false},
		{"weather", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDocumentKind(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("report.bin", []byte("%PDF-1.4\n...")))
	assert.True(t, IsPDF("Classement.PDF", []byte("whatever")))
	assert.False(t, IsPDF("classement.txt", []byte("1 19 SPEEDY KART")))
}

func TestDecodeDocument(t *testing.T) {
	text, err := DecodeDocument("classement.txt", []byte("1 19 SPEEDY KART 1:05.380"))
	require.NoError(t, err)
	assert.Equal(t, "1 19 SPEEDY KART 1:05.380", text)

	_, err = DecodeDocument("broken.pdf", []byte("%PDF-1.4 truncated"))
	assert.Error(t, err)
}

func TestLayoutText(t *testing.T) {
	glyphs := []pdf.Text{
		{FontSize: 10, X: 60, Y: 700, W: 5, S: "9"},
		{FontSize: 10, X: 10, Y: 700, W: 5, S: "1"},
		{FontSize: 10, X: 40, Y: 700.5, W: 5, S: "1"},
		{FontSize: 10, X: 10, Y: 680, W: 5, S: "2"},
		{FontSize: 10, X: 65, Y: 700, W: 5, S: "A"},
	}

	assert.Equal(t, "1 1 9A\n2", layoutText(glyphs))
	assert.Empty(t, layoutText(nil))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classement.txt"), []byte("1 19 SPEEDY KART"), 0o600))

	src := NewFileSource(dir, map[DocumentKind]string{
		KindRanking:  "classement.txt",
		KindPitStops: "missing.txt",
	})
	assert.Equal(t, "file", src.Name())

	text, err := src.Load(context.Background(), KindRanking)
	require.NoError(t, err)
	assert.Equal(t, "1 19 SPEEDY KART", text)

	_, err = src.Load(context.Background(), KindPitStops)
	assert.True(t, IsNotFound(err))

	_, err = src.Load(context.Background(), KindLapHistory)
	assert.True(t, IsNotFound(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Load(ctx, KindRanking)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource(map[DocumentKind]Document{
		KindLapHistory: {Name: "tours.txt", Data: []byte("Kart 19 - 1:06.000")},
		KindPitStops:   {Name: "arrets.txt"},
	})

	text, err := src.Load(context.Background(), KindLapHistory)
	require.NoError(t, err)
	assert.Contains(t, text, "Kart 19")

	_, err = src.Load(context.Background(), KindPitStops)
	assert.True(t, IsNotFound(err))

	_, err = src.Load(context.Background(), KindRanking)
	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeNotFound, dsErr.Code)
	assert.Equal(t, "upload", dsErr.Source)
	assert.False(t, IsInvalidData(err))
}

func TestMemorySourceInvalidDocument(t *testing.T) {
	src := NewMemorySource(map[DocumentKind]Document{
		KindRanking: {Name: "classement.pdf", Data: []byte("%PDF-1.4 garbage")},
	})

	_, err := src.Load(context.Background(), KindRanking)
	require.Error(t, err)
	assert.True(t, IsInvalidData(err))
	assert.False(t, IsNotFound(err))
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/classement":
			assert.Equal(t, "karting-sub000", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("1 19 SPEEDY KART 1:05.380"))
		case "/arrets":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(testClientConfig(), nil)
	src := NewHTTPSource(client, map[DocumentKind]string{
		KindRanking:    server.URL + "/classement",
		KindPitStops:   server.URL + "/arrets",
		KindLapHistory: server.URL + "/bad",
	}, nil)

	text, err := src.Load(context.Background(), KindRanking)
	require.NoError(t, err)
	assert.Equal(t, "1 19 SPEEDY KART 1:05.380", text)

	_, err = src.Load(context.Background(), KindPitStops)
	assert.True(t, IsNotFound(err))

	_, err = src.Load(context.Background(), KindLapHistory)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestRateLimitedHTTPClientCircuitBreaker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(testClientConfig(), nil)
	defer client.Close()

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), server.URL)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := client.Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	client.Reset()
	_, err = client.Get(context.Background(), server.URL)
	assert.NotErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFactoryFromLocations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arrets.txt"), []byte("Kart 19"), 0o600))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1 19 SPEEDY KART"))
	}))
	defer server.Close()

	factory := NewFactory(config.DataSourceConfig{BaseDir: dir, RateLimit: 1000}, nil)
	src, err := factory.FromLocations(map[DocumentKind]string{
		KindRanking:  server.URL + "/classement",
		KindPitStops: "arrets.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "http+file", src.Name())

	docs, err := LoadDocuments(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "1 19 SPEEDY KART", docs.Ranking)
	assert.Equal(t, "Kart 19", docs.PitStops)
	assert.Empty(t, docs.LapHistory)

	_, err = factory.FromLocations(map[DocumentKind]string{KindRanking: ""})
	assert.Error(t, err)
}

func TestLoadDocumentsRequiresOneDocument(t *testing.T) {
	_, err := LoadDocuments(context.Background(), NewMemorySource(nil))
	assert.True(t, IsNotFound(err))
}

func TestDetectSourceType(t *testing.T) {
	assert.Equal(t, HTTPSourceType, DetectSourceType("HTTPS://apex-timing.com/results/classement.pdf"))
	assert.Equal(t, FileSourceType, DetectSourceType("/tmp/classement.pdf"))
}
