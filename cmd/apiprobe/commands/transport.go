package commands

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/stateful"
)

// httpTransport sends built cases over plain HTTP.
type httpTransport struct {
	baseURL string
	client  *http.Client
}

var _ stateful.Transport = (*httpTransport)(nil)

func newHTTPTransport(baseURL string, timeout time.Duration) *httpTransport {
	return &httpTransport{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (t *httpTransport) Send(ctx context.Context, c *cases.Case) (*stateful.Response, error) {
	req, err := c.BuildRequest(ctx, t.baseURL)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &stateful.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		RawBody:    body,
	}, nil
}
