package oracle_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/oracle"
	"github.com/vanallenlab/almanac/internal/testutil"
)

func TestMemo_RemembersFoldedAnswers(t *testing.T) {
	inner := testutil.NewOracle().With(category.Disease, "Melanoma")
	memo := oracle.NewMemo(inner)
	ctx := context.Background()

	for _, candidate := range []string{"Melanoma", "MELANOMA", "melanoma"} {
		ok, err := memo.Exists(ctx, category.Disease, candidate)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Len(t, inner.Calls(), 1)

	// Same text under another category is a different question.
	ok, err := memo.Exists(ctx, category.Therapy, "melanoma")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, inner.Calls(), 2)
	assert.Equal(t, 2, memo.Len())
}

func TestMemo_AttributeNamesAreSeparate(t *testing.T) {
	inner := testutil.NewOracle().With(category.Feature, "gene").WithAttributeNames("gene")
	memo := oracle.NewMemo(inner)
	ctx := context.Background()

	_, err := memo.Exists(ctx, category.Feature, "gene")
	require.NoError(t, err)
	_, err = memo.ExistsAttributeName(ctx, "gene")
	require.NoError(t, err)
	_, err = memo.ExistsAttributeName(ctx, "GENE")
	require.NoError(t, err)

	assert.Len(t, inner.Calls(), 2)
}

func TestMemo_DoesNotRememberErrors(t *testing.T) {
	boom := errors.New("storage unavailable")
	inner := testutil.NewOracle()
	inner.Err = boom
	memo := oracle.NewMemo(inner)
	ctx := context.Background()

	_, err := memo.Exists(ctx, category.Pred, "Preclinical")
	assert.ErrorIs(t, err, boom)

	inner.Err = nil
	ok, err := memo.Exists(ctx, category.Pred, "Preclinical")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, inner.Calls(), 2)
}

// asciiOracle folds case the way SQLite LIKE does.
type asciiOracle struct {
	*testutil.Oracle
}

func (asciiOracle) Folding() oracle.Folding { return oracle.FoldASCII }

func TestFolding_Key(t *testing.T) {
	assert.Equal(t, "éclair", oracle.FoldUnicode.Key("ÉCLAIR"))
	assert.Equal(t, "Éclair", oracle.FoldASCII.Key("ÉCLAIR"))
	assert.Equal(t, "egfr", oracle.FoldASCII.Key("EGFR"))
}

func TestMemo_KeysFollowInnerFolding(t *testing.T) {
	ctx := context.Background()

	unicode := testutil.NewOracle()
	memo := oracle.NewMemo(unicode)
	for _, candidate := range []string{"Éclair", "éclair"} {
		_, err := memo.Exists(ctx, category.Disease, candidate)
		require.NoError(t, err)
	}
	assert.Len(t, unicode.Calls(), 1)

	ascii := asciiOracle{testutil.NewOracle()}
	memo = oracle.NewMemo(ascii)
	for _, candidate := range []string{"Éclair", "éclair", "ÉCLAIR", "éCLAIR"} {
		_, err := memo.Exists(ctx, category.Disease, candidate)
		require.NoError(t, err)
	}
	assert.Len(t, ascii.Calls(), 2, "only ASCII letters fold")
}

func TestFoldingOf_PropagatesThroughWrappers(t *testing.T) {
	ascii := asciiOracle{testutil.NewOracle()}
	chain := oracle.NewMemo(oracle.NewInstrumented(oracle.NewShared(ascii), &fakeRecorder{}))
	assert.Equal(t, oracle.FoldASCII, oracle.FoldingOf(chain))

	assert.Equal(t, oracle.FoldUnicode, oracle.FoldingOf(oracle.NewShared(testutil.NewOracle())))
}

// blockingOracle holds every lookup until release is closed.
type blockingOracle struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (b *blockingOracle) Exists(ctx context.Context, _ category.Category, _ string) (bool, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-b.release
	return true, nil
}

func (b *blockingOracle) ExistsAttributeName(ctx context.Context, _ string) (bool, error) {
	return b.Exists(ctx, category.Attribute, "")
}

func TestShared_CoalescesConcurrentLookups(t *testing.T) {
	inner := &blockingOracle{release: make(chan struct{})}
	shared := oracle.NewShared(inner)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	results := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := shared.Exists(ctx, category.Feature, "BRAF")
			assert.NoError(t, err)
			results[i] = ok
		}(i)
	}

	// Give every goroutine a chance to join the in-flight lookup.
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	for _, ok := range results {
		assert.True(t, ok)
	}
	inner.mu.Lock()
	defer inner.mu.Unlock()
	assert.GreaterOrEqual(t, inner.calls, 1)
	assert.Less(t, inner.calls, n)
}

func TestShared_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	inner := testutil.NewOracle()
	inner.Err = boom

	_, err := oracle.NewShared(inner).ExistsAttributeName(context.Background(), "gene")
	assert.ErrorIs(t, err, boom)
}

type observation struct {
	kind  string
	found bool
	err   error
}

type fakeRecorder struct {
	observations []observation
}

func (f *fakeRecorder) ObserveLookup(kind string, found bool, err error, _ time.Duration) {
	f.observations = append(f.observations, observation{kind: kind, found: found, err: err})
}

func TestInstrumented_ReportsEveryLookup(t *testing.T) {
	boom := errors.New("boom")
	inner := testutil.NewOracle().With(category.Therapy, "Erlotinib").WithAttributeNames("gene")
	inner.Err = boom
	inner.FailOn = "broken"
	rec := &fakeRecorder{}
	o := oracle.NewInstrumented(inner, rec)
	ctx := context.Background()

	_, _ = o.Exists(ctx, category.Therapy, "erlotinib")
	_, _ = o.ExistsAttributeName(ctx, "protein_change")
	_, err := o.Exists(ctx, category.Disease, "broken")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []observation{
		{kind: "therapy", found: true},
		{kind: "attribute-name", found: false},
		{kind: "disease", found: false, err: boom},
	}, rec.observations)
}

func TestRedisCache_FallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	inner := testutil.NewOracle().With(category.Pred, "Preclinical").WithAttributeNames("gene")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := oracle.NewRedisCache(inner, client, time.Minute, logger)
	ctx := context.Background()

	ok, err := cache.Exists(ctx, category.Pred, "preclinical")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.ExistsAttributeName(ctx, "Gene")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Len(t, inner.Calls(), 2)
}

func TestRedisCache_PropagatesInnerErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	boom := errors.New("storage unavailable")
	inner := testutil.NewOracle()
	inner.Err = boom
	cache := oracle.NewRedisCache(inner, client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := cache.Exists(context.Background(), category.Feature, "EGFR")
	assert.ErrorIs(t, err, boom)
}
