package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicAddr(t *testing.T) {
	tests := map[string]bool{
		"93.184.216.34":        true,
		"2606:4700::6810:85e5": true,
		"127.0.0.1":            false,
		"10.1.2.3":             false,
		"172.16.0.1":           false,
		"192.168.1.1":          false,
		"169.254.169.254":      false,
		"100.64.0.1":           false,
		"0.0.0.0":              false,
		"::1":                  false,
		"fd00::1":              false,
		"fe80::1":              false,
		"::ffff:127.0.0.1":     false,
		"224.0.0.1":            false,
	}

	for raw, want := range tests {
		assert.Equal(t, want, publicAddr(netip.MustParseAddr(raw)), raw)
	}
}

func TestRelayPublicOnly(t *testing.T) {
	var hits int
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("secret"))
	}))
	defer internal.Close()

	relay := NewRelay([]string{"{raw}"}, 5*time.Second, "").PublicOnly()
	assert.Equal(t, 5*time.Second, relay.Client.Timeout)

	resp, err := relay.Get(context.Background(), internal.URL+"/latest/meta-data")

	require.ErrorIs(t, err, ErrAllProxiesExhausted)
	assert.ErrorIs(t, err, ErrPrivateAddress)
	assert.Nil(t, resp)
	assert.Zero(t, hits)
}
