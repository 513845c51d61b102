package curated

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name    string
	entries map[string]*Entry
	err     error
	calls   int
}

func (f *fakeSource) Entry(ctx context.Context, symbol string) (*Entry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[symbol], nil
}

func (f *fakeSource) Name() string { return f.name }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRegistryFirstSourceWins(t *testing.T) {
	primary := &fakeSource{name: "db", entries: map[string]*Entry{
		"USDT": {Dashboard: &Dashboard{URL: "https://db.example/usdt"}},
	}}
	fallback := &fakeSource{name: "static", entries: map[string]*Entry{
		"USDT": {Dashboard: &Dashboard{URL: "https://static.example/usdt"}},
	}}
	r := NewRegistry(quietLogger(), primary, fallback)

	d, ok := r.Dashboard(context.Background(), "usdt")
	require.True(t, ok)
	assert.Equal(t, "https://db.example/usdt", d.URL)
	assert.Equal(t, 0, fallback.calls)
}

func TestRegistryFallsThroughOnMiss(t *testing.T) {
	primary := &fakeSource{name: "db", entries: map[string]*Entry{}}
	fallback := &fakeSource{name: "static", entries: map[string]*Entry{
		"DAI": {Oracle: &Oracle{Provider: "Chainlink"}},
	}}
	r := NewRegistry(quietLogger(), primary, fallback)

	o, ok := r.Oracle(context.Background(), "DAI")
	require.True(t, ok)
	assert.Equal(t, "Chainlink", o.Provider)
}

func TestRegistrySkipsFailingSource(t *testing.T) {
	broken := &fakeSource{name: "db", err: errors.New("connection refused")}
	fallback := &fakeSource{name: "static", entries: map[string]*Entry{
		"USDC": {AuditProfile: &AuditProfile{Score: 90}},
	}}
	r := NewRegistry(quietLogger(), broken, fallback)

	p, ok := r.AuditProfile(context.Background(), "USDC")
	require.True(t, ok, "a broken source must never hide the fallback")
	assert.Equal(t, 90, p.Score)
}

func TestRegistryUnknownSymbol(t *testing.T) {
	r := NewRegistry(quietLogger(), &fakeSource{name: "static"})

	_, ok := r.Dashboard(context.Background(), "NOPE")
	assert.False(t, ok)
	assert.Nil(t, r.AuditSources(context.Background(), "NOPE"))
	assert.Nil(t, r.PathOverrides(context.Background(), "NOPE"))
}
