package registrar

import (
	"context"
	"equivcrawl/internal/components/telemetry"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t testing.TB, endpoint string, tel telemetry.API) Client {
	client, err := NewClient(ClientOptions{
		Endpoint:     endpoint,
		SearchType:   DefaultSearchType,
		PoolSize:     4,
		RetryCount:   0,
		Timeout:      5 * time.Second,
		NoDataLength: DefaultNoDataLength,
	}, tel)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestFetchInstitution(t *testing.T) {
	var method, searchType, code string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		searchType = r.PostFormValue("search_type")
		code = r.PostFormValue("p_sbgi")
		w.Write([]byte("<html><body>equivalencies</body></html>"))
	}))
	defer server.Close()

	rec := &telemetry.Recorder{}
	client := newTestClient(t, server.URL, rec)

	body, err := client.FetchInstitution(context.Background(), "001234")
	require.NoError(t, err)
	require.Equal(t, "<html><body>equivalencies</body></html>", string(body))

	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "I", searchType)
	require.Equal(t, "001234", code)

	require.True(t, rec.Has(telemetry.KindDebug, "sending request for school code"))
}

func TestFetchInstitutionNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// any content of exactly the sentinel length is the "no data" page
		w.Write([]byte(strings.Repeat("x", DefaultNoDataLength)))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &telemetry.Recorder{})

	body, err := client.FetchInstitution(context.Background(), "000000")
	require.ErrorIs(t, err, ErrNoData)
	require.Nil(t, body)
}

func TestIsNoData(t *testing.T) {
	client := newTestClient(t, "http://localhost", &telemetry.Recorder{})

	require.True(t, client.IsNoData([]byte(strings.Repeat("a", DefaultNoDataLength))))
	require.False(t, client.IsNoData([]byte(strings.Repeat("a", DefaultNoDataLength-1))))
	require.False(t, client.IsNoData([]byte(strings.Repeat("a", DefaultNoDataLength+1))))
	// length is counted in characters, not bytes
	require.True(t, client.IsNoData([]byte(strings.Repeat("é", DefaultNoDataLength))))

	marked, err := NewClient(ClientOptions{
		Endpoint:     "http://localhost",
		PoolSize:     1,
		NoDataLength: DefaultNoDataLength,
		NoDataMarker: "No equivalencies found",
	}, &telemetry.Recorder{})
	require.NoError(t, err)
	require.True(t, marked.IsNoData([]byte("<p>No equivalencies found</p>")))
	require.False(t, marked.IsNoData([]byte("<p>ACC 201</p>")))
}

func TestFetchInstitutionStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rec := &telemetry.Recorder{}
	client := newTestClient(t, server.URL, rec)

	_, err := client.FetchInstitution(context.Background(), "000001")
	require.ErrorIs(t, err, ErrStatus)
	require.True(t, rec.Has(telemetry.KindWarning, "client.fetch-institution"))
}

func TestFetchInstitutionTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	rec := &telemetry.Recorder{}
	client := newTestClient(t, url, rec)

	_, err := client.FetchInstitution(context.Background(), "000002")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoData)
	require.True(t, rec.Has(telemetry.KindBroken, "resty.response"))
}

func TestFetchInstitutionRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// drop the connection so the client sees a transport error
			hijacker, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer cannot be hijacked")
				return
			}
			conn, _, err := hijacker.Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		w.Write([]byte("<html>found</html>"))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{
		Endpoint:     server.URL,
		SearchType:   DefaultSearchType,
		PoolSize:     1,
		RetryCount:   DefaultRetryCount,
		Timeout:      5 * time.Second,
		NoDataLength: DefaultNoDataLength,
	}, &telemetry.Recorder{})
	require.NoError(t, err)

	body, err := client.FetchInstitution(context.Background(), "000003")
	require.NoError(t, err)
	require.Equal(t, "<html>found</html>", string(body))
	require.Equal(t, int32(2), calls.Load())
}

func TestFetchInstitutionPoolSize(t *testing.T) {
	var inflight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			old := peak.Load()
			if current <= old || peak.CompareAndSwap(old, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &telemetry.Recorder{})

	wg := sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.FetchInstitution(context.Background(), "000004")
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, peak.Load(), int32(4))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(ClientOptions{Endpoint: "http://localhost", PoolSize: 0}, &telemetry.Recorder{})
	require.Error(t, err)

	_, err = NewClient(ClientOptions{Endpoint: "http://localhost", PoolSize: 1, RetryCount: -1}, &telemetry.Recorder{})
	require.Error(t, err)
}
