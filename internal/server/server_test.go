package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/interpret"
	"github.com/vanallenlab/almanac/internal/metrics"
	"github.com/vanallenlab/almanac/internal/store"
	"github.com/vanallenlab/almanac/internal/testutil"
)

type fakeSearcher struct {
	mu    sync.Mutex
	calls []map[category.Category][]string
	rows  []store.Row
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, cats map[category.Category][]string) ([]store.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cats)
	if f.err != nil {
		return nil, f.err
	}
	if f.rows == nil {
		return []store.Row{}, nil
	}
	return f.rows, nil
}

func knowledgebase() *testutil.Oracle {
	return testutil.NewOracle().
		With(category.Feature, "Somatic Variant").
		With(category.Disease, "Melanoma", "Invasive Breast Carcinoma").
		With(category.Therapy, "Dabrafenib").
		With(category.Pred, "FDA-Approved").
		WithAttributeNames("gene", "protein_change")
}

func newTestServer(o *testutil.Oracle, searcher Searcher, opts ...Option) http.Handler {
	opts = append([]Option{WithRequestIDs(func() string { return "req-1" })}, opts...)
	return New(interpret.New(o), searcher, opts...).Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeSearch(t *testing.T, rec *httptest.ResponseRecorder) SearchResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSearch_InterpretsUnifiedString(t *testing.T) {
	searcher := &fakeSearcher{rows: []store.Row{{AssertionID: 1, FeatureID: 1, DisplayString: "Missense BRAF p.V600E"}}}
	h := newTestServer(knowledgebase(), searcher)

	resp := decodeSearch(t, get(t, h, "/search?s=Gene:BRAF&s=melanoma&s=zzq"))

	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "Gene:BRAF melanoma zzq", resp.Query)
	assert.Equal(t, []string{"Gene:BRAF"}, resp.Interpretation["attribute"])
	assert.Equal(t, []string{"melanoma"}, resp.Interpretation["disease"])
	assert.Equal(t, []string{"zzq"}, resp.Interpretation["unknown"])
	assert.Equal(t, []string{}, resp.Interpretation["therapy"])
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "Missense BRAF p.V600E", resp.Rows[0].DisplayString)

	require.Len(t, searcher.calls, 1)
	assert.Equal(t, []string{"melanoma"}, searcher.calls[0][category.Disease])
}

func TestSearch_RepeatedParamsJoinWithSpaces(t *testing.T) {
	searcher := &fakeSearcher{}
	h := newTestServer(knowledgebase(), searcher)

	resp := decodeSearch(t, get(t, h, "/search?s=Invasive+Breast&s=Carcinoma[disease]"))
	assert.Equal(t, []string{"Invasive Breast Carcinoma"}, resp.Interpretation["disease"])
}

func TestSearch_StructuredFallback(t *testing.T) {
	searcher := &fakeSearcher{}
	o := knowledgebase()
	h := newTestServer(o, searcher)

	resp := decodeSearch(t, get(t, h, "/search?g=BRAF,+EGFR&d=Melanoma&t=Dabrafenib&p="))

	assert.Equal(t, "g=BRAF, EGFR&d=Melanoma&t=Dabrafenib", resp.Query)
	assert.Equal(t, []string{"gene:BRAF", "gene:EGFR"}, resp.Interpretation["attribute"])
	require.Len(t, searcher.calls, 1)
	assert.Equal(t, []string{"Melanoma"}, searcher.calls[0][category.Disease])
	assert.Equal(t, []string{"Dabrafenib"}, searcher.calls[0][category.Therapy])
	assert.Equal(t, []string{}, searcher.calls[0][category.Pred])
	assert.Empty(t, o.Calls(), "structured parameters skip interpretation")
}

func TestSearch_EmptyQueryReturnsNoRows(t *testing.T) {
	h := newTestServer(knowledgebase(), &fakeSearcher{})

	for _, target := range []string{"/search", "/search?s=", "/search?s=+++"} {
		resp := decodeSearch(t, get(t, h, target))
		assert.Equal(t, 0, resp.Count, target)
		assert.NotNil(t, resp.Rows, target)
		assert.Empty(t, resp.Rows, target)
	}
}

func TestSearch_OracleErrorIs500(t *testing.T) {
	o := knowledgebase()
	o.Err = errors.New("knowledgebase unreachable")
	searcher := &fakeSearcher{}
	h := newTestServer(o, searcher)

	rec := get(t, h, "/search?s=EGFR")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "search failed", body.Error)
	assert.Equal(t, "req-1", body.RequestID)
	assert.NotContains(t, rec.Body.String(), "unreachable")
	assert.Empty(t, searcher.calls)
}

func TestSearch_StorageErrorIs500(t *testing.T) {
	h := newTestServer(knowledgebase(), &fakeSearcher{err: errors.New("disk I/O error")})

	rec := get(t, h, "/search?s=Melanoma")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearch_RateLimited(t *testing.T) {
	h := newTestServer(knowledgebase(), &fakeSearcher{}, WithRateLimit(0.001, 1))

	assert.Equal(t, http.StatusOK, get(t, h, "/search?s=Melanoma").Code)

	rec := get(t, h, "/search?s=Melanoma")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code, "health checks are not limited")
}

func TestRequestID(t *testing.T) {
	h := newTestServer(knowledgebase(), &fakeSearcher{})

	rec := get(t, h, "/healthz")
	assert.Equal(t, "req-1", rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "upstream-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-42", rec.Header().Get(requestIDHeader))
}

func TestNewRequestID_IsUUIDv7(t *testing.T) {
	id := newRequestID()
	assert.Len(t, id, 36)
	assert.Equal(t, byte('7'), id[14])
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(knowledgebase(), &fakeSearcher{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	h := New(interpret.New(knowledgebase()), &fakeSearcher{}, WithMetrics(m)).Handler()

	get(t, h, "/search?s=Melanoma")
	get(t, h, "/nope")

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `almanac_searches_total{outcome="zero_results"} 1`)
	assert.Contains(t, body, `almanac_interpreted_phrases_total{category="disease"} 1`)
	assert.Contains(t, body, `almanac_http_requests_total{method="GET",path="GET /search",status="200"} 1`)
	assert.Contains(t, body, `path="unmatched",status="404"`)
}

func TestMetricsEndpoint_AbsentWithoutMetrics(t *testing.T) {
	rec := get(t, newTestServer(knowledgebase(), &fakeSearcher{}), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(interpret.New(knowledgebase()), &fakeSearcher{})

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

// blockingSearcher holds each search until release is closed or the
// request context ends.
type blockingSearcher struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSearcher) Search(ctx context.Context, _ map[category.Category][]string) ([]store.Row, error) {
	close(b.started)
	select {
	case <-b.release:
		return []store.Row{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestServe_DrainsInFlightRequestsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	searcher := &blockingSearcher{started: make(chan struct{}), release: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	s := New(interpret.New(knowledgebase()), searcher)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/search?s=Melanoma")
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	select {
	case <-searcher.started:
	case <-time.After(5 * time.Second):
		t.Fatal("search never reached the searcher")
	}

	cancel()
	time.Sleep(50 * time.Millisecond)
	close(searcher.release)

	select {
	case code := <-status:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request never completed")
	}
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestStructuredQuery_TrimsAndSplits(t *testing.T) {
	q := structuredQuery(map[string][]string{
		"g": {"BRAF, ,EGFR", "KRAS"},
		"x": {"ignored"},
	})
	assert.Equal(t, []string{"gene:BRAF", "gene:EGFR", "gene:KRAS"}, q.Phrases(category.Attribute))
	assert.True(t, strings.HasPrefix(q.Raw, "g="))
}
