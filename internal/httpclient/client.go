// Package httpclient builds the outbound HTTP client used for upstream model APIs.
//
// Requests carry no client-wide timeout: every attempt of the fallback chain
// owns its deadline through its context.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/horasecreta/advisor/errors"
)

// Client wraps http.Client with scheme, redirect and address guards
type Client struct {
	*http.Client
	allowedSchemes []string
	blockPrivateIP bool
	maxRedirects   int
}

// Options customizes the guards. Zero values select the defaults.
type Options struct {
	AllowedSchemes []string // Default: ["https", "http"]
	MaxRedirects   *int     // Default: 3
	BlockPrivateIP bool     // Refuse loopback/private upstreams (off for local proxies and tests)
}

// New creates an upstream HTTP client
func New(opts Options) *Client {
	maxRedirects := 3
	if opts.MaxRedirects != nil {
		maxRedirects = *opts.MaxRedirects
	}

	allowedSchemes := []string{"https", "http"}
	if opts.AllowedSchemes != nil {
		allowedSchemes = opts.AllowedSchemes
	}

	client := &Client{
		Client:         &http.Client{},
		allowedSchemes: allowedSchemes,
		blockPrivateIP: opts.BlockPrivateIP,
		maxRedirects:   maxRedirects,
	}

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= client.maxRedirects {
			return errors.Newf("stopped after %d redirects", client.maxRedirects)
		}
		if err := client.validateURL(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if client.blockPrivateIP {
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, errors.Wrap(err, "invalid address")
			}

			ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to resolve host %q", host)
			}

			for _, ip := range ips {
				if isPrivateIP(ip) {
					return nil, errors.Newf("private IP address blocked: %s", ip)
				}
			}

			return dialer.DialContext(ctx, network, addr)
		}
	}

	client.Transport = transport
	return client
}

// validateURL checks the scheme, userinfo and host of an upstream URL
func (c *Client) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	allowed := false
	for _, allowedScheme := range c.allowedSchemes {
		if scheme == allowedScheme {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.allowedSchemes)
	}

	// http://api.example.com@127.0.0.1/ style confusion
	if u.User != nil {
		return errors.New("URL must not carry user info")
	}

	hostname := u.Hostname()
	if hostname == "" {
		return errors.New("URL missing hostname")
	}

	if c.blockPrivateIP {
		if isLocalhost(hostname) {
			return errors.New("localhost access blocked")
		}
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return errors.Newf("private IP address blocked: %s", hostname)
		}
	}

	return nil
}

// ValidateURL validates a base URL string at construction time
func (c *Client) ValidateURL(urlStr string) (*url.URL, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}

	if err := c.validateURL(u); err != nil {
		return nil, err
	}

	return u, nil
}

// Do executes an HTTP request after validating its URL
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.validateURL(req.URL); err != nil {
		return nil, errors.Wrap(err, "request blocked")
	}
	return c.Client.Do(req)
}

// isPrivateIP checks if an IP is loopback, private, link-local or otherwise special
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		// 0.0.0.0/8 and 240.0.0.0/4
		return ip4[0] == 0 || ip4[0] >= 240
	}
	return false
}

// isLocalhost checks for localhost variants
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "localhost.localdomain" ||
		strings.HasSuffix(hostname, ".localhost")
}
