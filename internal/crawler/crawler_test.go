package crawler

import (
	"bytes"
	"context"
	"equivcrawl/internal/components/telemetry"
	"equivcrawl/internal/equiv"
	"equivcrawl/internal/registrar"
	"equivcrawl/internal/store"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func equivalencyPage(name string) []byte {
	return []byte(
		"<table></table><table></table><table></table>" +
			"<table><caption>Equivalency Table - " + name + "</caption>" +
			"<tr><td></td><td>ACC</td><td>201</td><td>-</td><td>Accounting</td><td>=</td>" +
			"<td>AC</td><td>210</td><td>-</td><td>Financial Accounting</td></tr>" +
			"</table>",
	)
}

// fakeSource answers by key: multiples of 3 have a table, multiples of 5
// are unknown, multiples of 7 fail and everything else is malformed.
type fakeSource struct {
	mutex      sync.Mutex
	dispatched map[string]int

	inflight atomic.Int32
	peak     atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{dispatched: map[string]int{}}
}

func (s *fakeSource) FetchInstitution(ctx context.Context, key string) ([]byte, error) {
	current := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		old := s.peak.Load()
		if current <= old || s.peak.CompareAndSwap(old, current) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	s.mutex.Lock()
	s.dispatched[key]++
	s.mutex.Unlock()

	n, err := strconv.Atoi(key)
	if err != nil {
		return nil, err
	}
	switch {
	case n%3 == 0:
		return equivalencyPage(fmt.Sprintf("School %d", n)), nil
	case n%5 == 0:
		return nil, registrar.ErrNoData
	case n%7 == 0:
		return nil, errors.New("connection reset by peer")
	default:
		return []byte("<html><body>maintenance</body></html>"), nil
	}
}

func expectedOutcome(n int) Outcome {
	switch {
	case n%3 == 0:
		return OutcomeOK
	case n%5 == 0:
		return OutcomeAbsent
	case n%7 == 0:
		return OutcomeTransportError
	default:
		return OutcomeMalformed
	}
}

func TestKeys(t *testing.T) {
	keys := Keys(DefaultKeyStart, DefaultKeyCount, DefaultKeyWidth)
	require.Len(t, keys, 6000)
	require.Equal(t, "000000", keys[0])
	require.Equal(t, "000042", keys[42])
	require.Equal(t, "005999", keys[len(keys)-1])

	require.Equal(t, []string{"0098", "0099", "0100"}, Keys(98, 3, 4))
	require.Nil(t, Keys(0, 0, 6))
}

func TestRun(t *testing.T) {
	const keyCount = 240
	const workers = 8

	dir, err := store.Open(t.TempDir())
	require.NoError(t, err)

	source := newFakeSource()
	rec := &telemetry.Recorder{}
	c := New(source, dir, workers, rec)

	keys := Keys(0, keyCount, DefaultKeyWidth)
	summary := c.Run(context.Background(), keys)

	// every key dispatched exactly once
	require.Len(t, source.dispatched, keyCount)
	for _, key := range keys {
		require.Equal(t, 1, source.dispatched[key], key)
	}
	require.LessOrEqual(t, source.peak.Load(), int32(workers))

	expected := map[Outcome]int{}
	for i := 0; i < keyCount; i++ {
		expected[expectedOutcome(i)]++
	}
	require.Equal(t, expected, summary.Counts)
	require.Equal(t, keyCount, summary.Total())

	stored, err := dir.Keys()
	require.NoError(t, err)
	require.Len(t, stored, expected[OutcomeOK])

	table, err := dir.Read("000003")
	require.NoError(t, err)
	require.Equal(t, "School 3", table.SchoolName)
	require.Equal(t, "000003", table.SchoolCode)
	require.Len(t, table.Rows, 1)

	require.True(t, rec.Has(telemetry.KindWarning, report_crawler_process_key))
	require.True(t, rec.Has(telemetry.KindCount, report_crawler_outcome+".ok"))
}

func TestRunReportNames(t *testing.T) {
	dir, err := store.Open(t.TempDir())
	require.NoError(t, err)

	keys := Keys(0, 60, DefaultKeyWidth)
	summary := New(newFakeSource(), dir, 5, &telemetry.Recorder{}).Run(context.Background(), keys)

	var out bytes.Buffer
	printed, err := ReportNames(context.Background(), &out, dir, keys, &telemetry.Recorder{})
	require.NoError(t, err)

	stored, err := dir.Keys()
	require.NoError(t, err)
	require.Equal(t, len(stored), printed)
	require.Equal(t, summary.Counts[OutcomeOK], printed)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, printed)
	// ascending key order
	require.Equal(t, "School 0", lines[0])
	require.Equal(t, "School 3", lines[1])
	require.Equal(t, "School 57", lines[len(lines)-1])
}

type failingSink struct{}

func (failingSink) Write(equiv.Table) error {
	return errors.New("disk full")
}

func TestRunStoreError(t *testing.T) {
	rec := &telemetry.Recorder{}
	summary := New(newFakeSource(), failingSink{}, 2, rec).Run(context.Background(), []string{"000003", "000005"})

	require.Equal(t, 1, summary.Counts[OutcomeStoreError])
	require.Equal(t, 1, summary.Counts[OutcomeAbsent])
	require.True(t, rec.Has(telemetry.KindBroken, report_crawler_process_key))
}

func TestRunCancelled(t *testing.T) {
	dir, err := store.Open(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := newFakeSource()
	summary := New(source, dir, 4, &telemetry.Recorder{}).Run(ctx, Keys(0, 100, DefaultKeyWidth))
	require.Equal(t, 0, summary.Total())
	require.Empty(t, source.dispatched)
}

type brokenArtifacts map[string]error

func (b brokenArtifacts) Read(key string) (equiv.Table, error) {
	err, ok := b[key]
	if !ok {
		return equiv.Table{SchoolName: "School " + key, SchoolCode: key}, nil
	}
	return equiv.Table{}, err
}

func TestReportNamesSkipsUnreadable(t *testing.T) {
	artifacts := brokenArtifacts{
		"000001": store.ErrNotFound,
		"000002": errors.New("decode artifact 000002: unexpected end of JSON input"),
	}
	rec := &telemetry.Recorder{}

	var out bytes.Buffer
	printed, err := ReportNames(context.Background(), &out, artifacts, []string{"000000", "000001", "000002", "000003"}, rec)
	require.NoError(t, err)
	require.Equal(t, 2, printed)
	require.Equal(t, "School 000000\nSchool 000003\n", out.String())
	require.True(t, rec.Has(telemetry.KindWarning, report_report_names))
}
