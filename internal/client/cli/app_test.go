package cli

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/blogkeeper/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeCounter struct{ n int }

func (c *closeCounter) Close() error { c.n++; return nil }

func TestRun_RestoresSessionAndClosesStores(t *testing.T) {
	out := silencePrintln(t)

	s := &fakeSession{restoreOK: true}
	a, _ := newTestApp(s, newFakePosts(), lines("whoami", "exit"))
	closer := &closeCounter{}
	a.closer = closer

	a.Run(context.Background())

	assert.Contains(t, *out, "Signed in as a@x.com")
	assert.Contains(t, *out, "blog(a@x.com)> ")
	assert.Equal(t, 1, closer.n)
}

func TestRun_NoSession(t *testing.T) {
	out := silencePrintln(t)

	a, _ := newTestApp(&fakeSession{}, newFakePosts(), "")
	a.Run(context.Background())

	assert.NotContains(t, *out, "Signed in as a@x.com")
}

func TestServeMetrics_DisabledWithoutAddress(t *testing.T) {
	a, _ := newTestApp(&fakeSession{}, nil, "")
	a.config = &config.Config{}
	stop := a.serveMetrics(context.Background())
	require.NotNil(t, stop)
	stop()
}

func TestNewSummarizer(t *testing.T) {
	ctx := context.Background()

	c := &config.Config{SummarizerProvider: config.SummarizerHTTP, SummarizerURL: "http://localhost:5000"}
	s, err := newSummarizer(ctx, c)
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = newSummarizer(ctx, &config.Config{SummarizerProvider: config.SummarizerHTTP})
	require.Error(t, err)

	_, err = newSummarizer(ctx, &config.Config{SummarizerProvider: "carrier-pigeon"})
	require.ErrorContains(t, err, "unknown summarizer provider")
}

func TestNewApp_BadHasher(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()
	c.Hasher = "md5"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}
