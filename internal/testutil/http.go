package testutil

import (
	"net"
	"net/http"
	"time"
)

// NoProxyClient returns an HTTP client that ignores HTTP_PROXY, so tests
// against a local server work on machines with a proxy configured.
// Compression is disabled so streamed chunks are read as they arrive.
func NoProxyClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:              nil,
			DisableCompression: true,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}
}
