package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() Key {
	return Key{Scheme: "http", Authority: "example.com:80", ALPN: "h1h2"}
}

type fakeMetrics struct {
	idle     map[string]int
	inUse    map[string]int
	requests []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{idle: map[string]int{}, inUse: map[string]int{}}
}

func (f *fakeMetrics) SetIdle(key string, n int)  { f.idle[key] = n }
func (f *fakeMetrics) SetInUse(key string, n int) { f.inUse[key] = n }
func (f *fakeMetrics) IncRequests(method, outcome string) {
	f.requests = append(f.requests, method+":"+outcome)
}

func TestAcquireReportsIdleAndInUseGauges(t *testing.T) {
	m := newFakeMetrics()
	p := New(m)
	key := testKey()
	opts := Options{MaxConnsPerHost: 4}

	release, err := p.Acquire(context.Background(), key, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, m.inUse[key.String()])
	assert.Equal(t, 3, m.idle[key.String()])

	release()
	assert.Equal(t, 0, m.inUse[key.String()])
	assert.Equal(t, 4, m.idle[key.String()])
}

func TestRecordRequestIncrementsCounter(t *testing.T) {
	m := newFakeMetrics()
	p := New(m)
	p.RecordRequest("GET", "ok")
	p.RecordRequest("GET", "error")
	assert.Equal(t, []string{"GET:ok", "GET:error"}, m.requests)
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p := New(nil)
	release, err := p.Acquire(context.Background(), testKey(), Options{MaxConnsPerHost: 1})
	require.NoError(t, err)
	release()
}

func TestAcquireBlocksUntilReleaseAtCapacity(t *testing.T) {
	p := New(nil)
	key := testKey()
	opts := Options{MaxConnsPerHost: 1}

	release1, err := p.Acquire(context.Background(), key, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx, key, opts)
	require.Error(t, err)

	release1()
	release2, err := p.Acquire(context.Background(), key, opts)
	require.NoError(t, err)
	release2()
}

func TestRoundTripperReusesSameTransportForSameKey(t *testing.T) {
	p := New(nil)
	key := testKey()
	opts := Options{MaxConnsPerHost: 4}
	assert.Same(t, p.RoundTripper(key, opts), p.RoundTripper(key, opts))
}

func TestMarkBrokenEvictsSlot(t *testing.T) {
	p := New(nil)
	key := testKey()
	opts := Options{MaxConnsPerHost: 4}
	rt1 := p.RoundTripper(key, opts)
	p.MarkBroken(key)
	rt2 := p.RoundTripper(key, opts)
	assert.NotSame(t, rt1, rt2)
}
