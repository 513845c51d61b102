package curated

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Source supplies curated entries for symbols. A nil entry with a nil error
// means the source holds nothing for that symbol.
type Source interface {
	Entry(ctx context.Context, symbol string) (*Entry, error)
	Name() string
}

// Registry resolves curated data through an ordered source chain. The first
// source that holds an entry wins; source errors are logged and skipped so an
// unreachable database never hides the embedded dataset.
type Registry struct {
	sources []Source
	logger  *logrus.Entry
}

// NewRegistry builds a registry over the given sources, consulted in order.
func NewRegistry(log *logrus.Logger, sources ...Source) *Registry {
	return &Registry{
		sources: sources,
		logger:  log.WithField("component", "curated"),
	}
}

// Entry returns the curated entry for a symbol, or nil when no source holds
// one.
func (r *Registry) Entry(ctx context.Context, symbol string) *Entry {
	upper := strings.ToUpper(symbol)
	for _, src := range r.sources {
		entry, err := src.Entry(ctx, upper)
		if err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"source": src.Name(),
				"symbol": upper,
			}).Warn("Curated source lookup failed")
			continue
		}
		if entry != nil {
			return entry
		}
	}
	return nil
}

// Dashboard returns the curated dashboard for a symbol, if any.
func (r *Registry) Dashboard(ctx context.Context, symbol string) (*Dashboard, bool) {
	entry := r.Entry(ctx, symbol)
	if entry == nil || entry.Dashboard == nil {
		return nil, false
	}
	return entry.Dashboard, true
}

// AuditSources returns the curated audit listing pages for a symbol.
func (r *Registry) AuditSources(ctx context.Context, symbol string) []AuditSource {
	entry := r.Entry(ctx, symbol)
	if entry == nil {
		return nil
	}
	return entry.AuditSources
}

// Oracle returns the known oracle configuration for a symbol, if any.
func (r *Registry) Oracle(ctx context.Context, symbol string) (*Oracle, bool) {
	entry := r.Entry(ctx, symbol)
	if entry == nil || entry.Oracle == nil {
		return nil, false
	}
	return entry.Oracle, true
}

// AuditProfile returns the well-audited-issuer entry for a symbol, if any.
func (r *Registry) AuditProfile(ctx context.Context, symbol string) (*AuditProfile, bool) {
	entry := r.Entry(ctx, symbol)
	if entry == nil || entry.AuditProfile == nil {
		return nil, false
	}
	return entry.AuditProfile, true
}

// TokenAddress returns the pinned contract address for a symbol, if any.
func (r *Registry) TokenAddress(ctx context.Context, symbol string) (*TokenAddress, bool) {
	entry := r.Entry(ctx, symbol)
	if entry == nil || entry.TokenAddress == nil {
		return nil, false
	}
	return entry.TokenAddress, true
}

// PathOverrides returns site-specific documentation paths for a symbol.
func (r *Registry) PathOverrides(ctx context.Context, symbol string) []string {
	entry := r.Entry(ctx, symbol)
	if entry == nil {
		return nil
	}
	return entry.PathOverrides
}
