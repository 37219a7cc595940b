package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/postalgeo/internal/dataset"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func loaded(t *testing.T) *dataset.Holder {
	t.Helper()
	st, err := dataset.Build([]postal.Record{
		postal.New("90210", 34.0901, -118.4065, "CA", 1029067, 0, "US"),
	}, dataset.BuildOptions{Source: "csv"})
	require.NoError(t, err)
	return dataset.NewHolder(st)
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(loaded(t), &mockPinger{})
	r := svc.Check(context.Background())

	assert.Equal(t, Healthy, r.Status)
	assert.Equal(t, CheckOK, r.Checks[CheckDataset])
	assert.Equal(t, CheckOK, r.Checks[CheckSource])
	assert.Equal(t, 1, r.Records)
}

func TestCheck_SourceError(t *testing.T) {
	svc := New(loaded(t), &mockPinger{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	assert.Equal(t, Degraded, r.Status)
	assert.Equal(t, CheckOK, r.Checks[CheckDataset])
	assert.Equal(t, CheckError, r.Checks[CheckSource])
}

func TestCheck_NoDataset(t *testing.T) {
	svc := New(dataset.NewHolder(nil), &mockPinger{})
	r := svc.Check(context.Background())

	assert.Equal(t, Unhealthy, r.Status)
	assert.Equal(t, CheckError, r.Checks[CheckDataset])
}

func TestCheck_NoDataset_SourceError(t *testing.T) {
	svc := New(dataset.NewHolder(nil), &mockPinger{err: errors.New("down")})
	r := svc.Check(context.Background())

	assert.Equal(t, Unhealthy, r.Status)
	assert.Equal(t, CheckError, r.Checks[CheckSource])
}

func TestCheck_NoSource(t *testing.T) {
	svc := New(loaded(t), nil)
	r := svc.Check(context.Background())

	assert.Equal(t, Healthy, r.Status)
	assert.NotContains(t, r.Checks, CheckSource, "source check absent without a source")
}
