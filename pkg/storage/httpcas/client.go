// Package httpcas implements storage.Store as an HTTP client against a
// remote DVS CAS server: HEAD/GET/PUT on /objects/{algo}/{hex}, bearer
// auth, and non-2xx-to-taxonomy status mapping.
//
// Grounded on the original Rust HttpStore (dvs-core/src/helpers/store.rs)
// for the endpoint shape, and on the teacher's pkg/storage/sthree error
// mapping (apiErrors: HTTP status -> sentinel error) for the status-code
// taxonomy translation, adapted from S3's codes to the plain HTTP codes
// this spec's server returns (§4.2, §4.11).
package httpcas

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/storage"
)

// Default timeouts per §5: 30s connect, 5min operation.
const (
	DefaultConnectTimeout   = 30 * time.Second
	DefaultOperationTimeout = 5 * time.Minute
)

// Client is an HTTP CAS client implementing storage.Store.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAuthToken sets the bearer token sent with every request.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithHTTPClient overrides the underlying *http.Client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a Client against baseURL, trimming any trailing slash.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultOperationTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: DefaultConnectTimeout}).DialContext,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ storage.Store = (*Client)(nil)

func (c *Client) Type() string { return "http" }

func (c *Client) objectURL(id oid.Oid) string {
	return c.baseURL + "/objects/" + string(id.Algo) + "/" + id.Hex
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

func (c *Client) Has(ctx context.Context, id oid.Oid) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodHead, c.objectURL(id), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, dvserrors.Newf(dvserrors.KindHTTPError, "HEAD %s", req.URL).Wrap(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, mapStatus(resp.StatusCode, req.URL.String())
	}
}

func (c *Client) Get(ctx context.Context, id oid.Oid, dest io.Writer) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.objectURL(id), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dvserrors.Newf(dvserrors.KindHTTPError, "GET %s", req.URL).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return mapStatus(resp.StatusCode, req.URL.String())
	}
	if _, err := io.Copy(dest, resp.Body); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "reading body of %s", req.URL).Wrap(err)
	}
	return nil
}

func (c *Client) Put(ctx context.Context, id oid.Oid, src io.Reader) error {
	req, err := c.newRequest(ctx, http.MethodPut, c.objectURL(id), src)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dvserrors.Newf(dvserrors.KindHTTPError, "PUT %s", req.URL).Wrap(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	default:
		return mapStatus(resp.StatusCode, req.URL.String())
	}
}

// mapStatus translates a non-success HTTP status into the §7 taxonomy,
// mirroring the teacher's apiErrors status-code switch.
func mapStatus(status int, url string) error {
	switch status {
	case http.StatusNotFound:
		return dvserrors.New(dvserrors.KindObjectMissing).WithPath(url)
	case http.StatusUnauthorized:
		return dvserrors.New(dvserrors.KindUnauthorized).WithPath(url)
	case http.StatusForbidden:
		return dvserrors.New(dvserrors.KindForbidden).WithPath(url)
	case http.StatusRequestEntityTooLarge:
		return dvserrors.New(dvserrors.KindTooLarge).WithPath(url)
	default:
		return dvserrors.Newf(dvserrors.KindHTTPError, "unexpected status %d", status).WithPath(url)
	}
}
