package httperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutClassifiesAsTimeoutAndTransport(t *testing.T) {
	err := ReadTimeout("https://example.com", errors.New("deadline exceeded"))

	assert.True(t, IsTimeout(err))
	assert.True(t, IsTransport(err))

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, KindReadTimeout, te.Kind())
}

func TestTimeoutClassifiesAsTransportRequestAndHTTPError(t *testing.T) {
	err := ConnectTimeout("https://example.com", errors.New("deadline exceeded"))

	var te *TransportError
	require.True(t, errors.As(err, &te), "a TimeoutError must be catchable as TransportError")

	var re *RequestError
	require.True(t, errors.As(err, &re), "a TimeoutError must be catchable as RequestError")

	var he HTTPError
	require.True(t, errors.As(err, &he), "a TimeoutError must be catchable as HTTPError")
}

func TestNetworkErrorDoesNotClassifyAsTimeout(t *testing.T) {
	err := ConnectError("https://example.com", errors.New("refused"))
	assert.False(t, IsTimeout(err))
	assert.True(t, IsTransport(err))
}

func TestTooManyRedirectsKind(t *testing.T) {
	err := TooManyRedirects("https://example.com/redirect/5", 2)
	assert.True(t, IsTooManyRedirects(err))
	assert.Contains(t, err.Error(), "2 hops")
}

func TestStreamErrorsClassify(t *testing.T) {
	assert.True(t, IsStreamConsumed(StreamConsumed()))
	assert.True(t, IsStreamClosed(StreamClosed()))
	assert.False(t, IsStreamConsumed(StreamClosed()))
}

func TestErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("boom")
	err := ConnectError("https://example.com", cause)
	assert.ErrorIs(t, err, cause)
}
