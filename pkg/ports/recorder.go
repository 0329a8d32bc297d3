package ports

import "github.com/aretw0/kiosk/pkg/domain"

// Recorder is the observability sink for the core.
// Price parse failures and default-price fallbacks are reported separately so
// they can be told apart from genuine zero prices.
type Recorder interface {
	EventHandled(kind domain.EventKind)
	PriceParseFailed(reason string)
	DefaultPriceUsed(reason string)
	UnresolvedCartEntry()
	OrderPlaced(method string, total float64)
	CatalogLoaded(degraded bool)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) EventHandled(domain.EventKind) {}
func (NopRecorder) PriceParseFailed(string)       {}
func (NopRecorder) DefaultPriceUsed(string)       {}
func (NopRecorder) UnresolvedCartEntry()          {}
func (NopRecorder) OrderPlaced(string, float64)   {}
func (NopRecorder) CatalogLoaded(bool)            {}
