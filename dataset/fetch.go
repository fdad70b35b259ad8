package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// ErrNoCredentials is returned when the upstream redirects to a login page
// and no credentials are configured.
var ErrNoCredentials = errors.New("upstream requires authentication but no credentials are configured")

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.URL)
}

// Credentials for HTTP basic auth.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) empty() bool {
	return c.Username == "" && c.Password == ""
}

// Fetcher downloads upstream resources that may sit behind a login wall.
//
// A fetch first requests the resource without credentials. If the request
// ends up at a different URL, the upstream has redirected to its login
// page, and the resolved URL is requested again with basic auth.
type Fetcher struct {
	Client      *http.Client
	Credentials Credentials
}

// NewFetcher returns a Fetcher using a client with a cookie jar, so that a
// login session survives the redirects back to the data host.
func NewFetcher(creds Credentials) *Fetcher {
	jar, _ := cookiejar.New(nil)
	return &Fetcher{
		Client:      &http.Client{Jar: jar},
		Credentials: creds,
	}
}

type fetchState int

const (
	stateRequest fetchState = iota
	stateRedirected
	stateAuthenticated
	stateComplete
)

func (s fetchState) String() string {
	switch s {
	case stateRequest:
		return "request"
	case stateRedirected:
		return "redirected"
	case stateAuthenticated:
		return "authenticated"
	case stateComplete:
		return "complete"
	}
	return fmt.Sprintf("fetchState(%d)", int(s))
}

// next returns the state that follows s once a request for requested has
// resolved to resolved.
func next(s fetchState, requested, resolved string) fetchState {
	switch s {
	case stateRequest:
		if resolved != requested {
			return stateRedirected
		}
		return stateComplete
	case stateRedirected:
		return stateAuthenticated
	default:
		return stateComplete
	}
}

// Get fetches rawURL and returns the response body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	requested := u.String()
	target := requested

	var body []byte
	state := stateRequest
	for state != stateComplete {
		switch state {
		case stateRequest:
			resp, err := f.do(ctx, target, false)
			if err != nil {
				return nil, err
			}
			resolved := resp.Request.URL.String()
			state = next(state, requested, resolved)
			if state == stateRedirected {
				resp.Body.Close()
				target = resolved
				continue
			}
			if body, err = readBody(resp); err != nil {
				return nil, err
			}

		case stateRedirected:
			if f.Credentials.empty() {
				return nil, fmt.Errorf("%s: %w", target, ErrNoCredentials)
			}
			state = next(state, requested, target)

		case stateAuthenticated:
			resp, err := f.do(ctx, target, true)
			if err != nil {
				return nil, err
			}
			if body, err = readBody(resp); err != nil {
				return nil, err
			}
			state = next(state, requested, resp.Request.URL.String())
		}
	}
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, target string, auth bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if auth {
		req.SetBasicAuth(f.Credentials.Username, f.Credentials.Password)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
