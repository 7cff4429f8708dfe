package registrar

import (
	"bytes"
	"context"
	"equivcrawl/internal/components/assert"
	"equivcrawl/internal/components/telemetry"
	"equivcrawl/lib/restyutil"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const (
	report_client_fetch_institution = "client.fetch-institution"
)

const (
	DefaultEndpoint   = "https://ssb.ua.edu/pls/PROD/rtstreq.P_Inputdata"
	DefaultSearchType = "I"

	// DefaultNoDataLength is the length of the page served for a code that
	// does not belong to any institution.
	DefaultNoDataLength = 9344
	DefaultPoolSize     = 20
	DefaultRetryCount   = 3
	DefaultTimeout      = 30 * time.Second
)

// form fields of the lookup endpoint
const (
	fieldSearchType      = "search_type"
	fieldInstitutionCode = "p_sbgi"
)

var (
	// ErrNoData is returned for institution codes the registrar has nothing for.
	ErrNoData = errors.New("registrar: no data for institution code")
	// ErrStatus is returned when the registrar answers with a non-2xx status.
	ErrStatus = errors.New("registrar: unexpected status")
)

type ClientOptions struct {
	Endpoint   string
	SearchType string

	// PoolSize caps the connections to the registrar, requests beyond it wait
	// for a free connection.
	PoolSize   int
	RetryCount int
	Timeout    time.Duration

	// NoDataLength is the character count of the "no data" page.
	NoDataLength int
	// NoDataMarker, if set, also marks any body containing it as "no data".
	NoDataMarker string

	UserAgent        string
	CloudflareBypass bool

	// Dump receives every http exchange, it can be nil.
	Dump restyutil.InstrumentOutput
}

// Client fetches course equivalency pages from the registrar.
type Client struct {
	http         *resty.Client
	endpoint     string
	searchType   string
	noDataLength int
	noDataMarker []byte

	tel telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Endpoint)

	if opts.PoolSize <= 0 {
		return Client{}, fmt.Errorf("registrar: pool size must be positive, got %d", opts.PoolSize)
	}
	if opts.RetryCount < 0 {
		return Client{}, fmt.Errorf("registrar: retry count must not be negative, got %d", opts.RetryCount)
	}

	tel = telemetry.NewScopedAPI("registrar", tel)

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        opts.PoolSize,
		MaxIdleConnsPerHost: opts.PoolSize,
		MaxConnsPerHost:     opts.PoolSize,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	httpClient := resty.New()
	if opts.CloudflareBypass {
		httpClient.SetTransport(cloudflarebp.AddCloudFlareByPass(transport))
	} else {
		httpClient.SetTransport(transport)
	}
	httpClient.SetRetryCount(opts.RetryCount)
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.DumpMessages(httpClient, opts.Dump)

	c := Client{
		http:         httpClient,
		endpoint:     opts.Endpoint,
		searchType:   opts.SearchType,
		noDataLength: opts.NoDataLength,
		tel:          tel,
	}
	if opts.NoDataMarker != "" {
		c.noDataMarker = []byte(opts.NoDataMarker)
	}
	return c, nil
}

// IsNoData reports whether body is the registrar's "no data" page.
func (c Client) IsNoData(body []byte) bool {
	if utf8.RuneCount(body) == c.noDataLength {
		return true
	}
	return c.noDataMarker != nil && bytes.Contains(body, c.noDataMarker)
}

// FetchInstitution requests the equivalency page of the institution `key`.
// ErrNoData is returned if the registrar does not know the code.
func (c Client) FetchInstitution(ctx context.Context, key string) ([]byte, error) {
	c.tel.ReportDebug("sending request for school code", key)

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			fieldSearchType:      c.searchType,
			fieldInstitutionCode: key,
		}).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch institution %s: %w", key, err)
	}
	if res.IsError() {
		c.tel.ReportWarning(
			report_client_fetch_institution,
			fmt.Errorf("%w: %s", ErrStatus, res.Status()),
			key,
		)
		return nil, fmt.Errorf("fetch institution %s: %w: %s", key, ErrStatus, res.Status())
	}

	body := res.Body()
	if c.IsNoData(body) {
		return nil, ErrNoData
	}
	return body, nil
}
