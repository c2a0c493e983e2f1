package cookiejar

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respWithSetCookie(t *testing.T, setCookie ...string) *http.Response {
	t.Helper()
	h := http.Header{}
	for _, sc := range setCookie {
		h.Add("Set-Cookie", sc)
	}
	return &http.Response{Header: h}
}

func TestUpdateAndCookieHeaderRoundTrip(t *testing.T) {
	j := New()
	u, err := url.Parse("https://example.com/app/page")
	require.NoError(t, err)

	resp := respWithSetCookie(t, "session=abc123; Path=/app")
	j.Update(u, resp)

	header := j.CookieHeader(u)
	assert.Equal(t, "session=abc123", header)
}

func TestCookieHeaderRespectsDomainSuffixMatch(t *testing.T) {
	j := New()
	root, _ := url.Parse("https://example.com/")
	j.Update(root, respWithSetCookie(t, "a=1; Domain=example.com; Path=/"))

	sub, _ := url.Parse("https://sub.example.com/")
	assert.Equal(t, "a=1", j.CookieHeader(sub))

	other, _ := url.Parse("https://notexample.com/")
	assert.Equal(t, "", j.CookieHeader(other))
}

func TestCookieHeaderRespectsPathPrefix(t *testing.T) {
	j := New()
	u, _ := url.Parse("https://example.com/admin/")
	j.Update(u, respWithSetCookie(t, "a=1; Path=/admin"))

	inScope, _ := url.Parse("https://example.com/admin/dashboard")
	assert.Equal(t, "a=1", j.CookieHeader(inScope))

	outOfScope, _ := url.Parse("https://example.com/public")
	assert.Equal(t, "", j.CookieHeader(outOfScope))
}

func TestNegativeMaxAgeDeletesCookie(t *testing.T) {
	j := New()
	u, _ := url.Parse("https://example.com/")
	j.Update(u, respWithSetCookie(t, "a=1; Path=/"))
	require.Equal(t, "a=1", j.CookieHeader(u))

	j.Update(u, respWithSetCookie(t, "a=1; Path=/; Max-Age=-1"))
	assert.Equal(t, "", j.CookieHeader(u))
}

func TestSecureCookieOmittedOnPlainHTTP(t *testing.T) {
	j := New()
	u, _ := url.Parse("https://example.com/")
	j.Update(u, respWithSetCookie(t, "a=1; Path=/; Secure"))

	httpURL, _ := url.Parse("http://example.com/")
	assert.Equal(t, "", j.CookieHeader(httpURL))
	assert.Equal(t, "a=1", j.CookieHeader(u))
}

func TestSeedFromMap(t *testing.T) {
	j := New()
	j.SeedFromMap("example.com", map[string]string{"pre": "seeded"})
	u, _ := url.Parse("https://example.com/")
	assert.Equal(t, "pre=seeded", j.CookieHeader(u))
}

func TestSeedFromMapWithEmptyHostAppliesToAnyDomain(t *testing.T) {
	j := New()
	j.SeedFromMap("", map[string]string{"session": "abc123"})

	a, _ := url.Parse("https://example.com/")
	assert.Equal(t, "session=abc123", j.CookieHeader(a))

	b, _ := url.Parse("https://unrelated.org/")
	assert.Equal(t, "session=abc123", j.CookieHeader(b))
}
