// Package notion reads and writes bouquet inventory rows kept in a Notion
// workspace database.
package notion

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://api.notion.com"

const requestTimeout = 15 * time.Second

// NewClient returns an API client authenticated with token. A baseURL other
// than DefaultBaseURL routes every request to that host instead, for proxies
// and tests.
func NewClient(token, baseURL string) (*notionapi.Client, error) {
	hc := &http.Client{Timeout: requestTimeout}

	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL != "" && baseURL != DefaultBaseURL {
		target, err := url.Parse(baseURL)
		if err != nil {
			return nil, err
		}
		hc.Transport = hostRewriter{target: target, next: http.DefaultTransport}
	}
	return notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(hc)), nil
}

type hostRewriter struct {
	target *url.URL
	next   http.RoundTripper
}

func (h hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = h.target.Scheme
	req.URL.Host = h.target.Host
	req.Host = h.target.Host
	return h.next.RoundTrip(req)
}
