package testutils

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/catalog"
	"github.com/aretw0/kiosk/pkg/domain"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	tmpDir := t.TempDir()

	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// LogBuffer is a concurrency-safe buffer for capturing log output.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogger returns a debug level logger writing into a LogBuffer.
func CaptureLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return logging.NewWithWriter(buf, slog.LevelDebug), buf
}

// Recorder is a ports.Recorder that counts what it receives.
type Recorder struct {
	mu sync.Mutex

	Events          map[domain.EventKind]int
	ParseFailures   []string
	DefaultPrices   []string
	Unresolved      int
	Orders          []string
	OrderTotals     []float64
	CatalogDegraded []bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Events: make(map[domain.EventKind]int)}
}

func (r *Recorder) EventHandled(kind domain.EventKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events[kind]++
}

func (r *Recorder) PriceParseFailed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ParseFailures = append(r.ParseFailures, reason)
}

func (r *Recorder) DefaultPriceUsed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DefaultPrices = append(r.DefaultPrices, reason)
}

func (r *Recorder) UnresolvedCartEntry() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Unresolved++
}

func (r *Recorder) OrderPlaced(method string, total float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Orders = append(r.Orders, method)
	r.OrderTotals = append(r.OrderTotals, total)
}

func (r *Recorder) CatalogLoaded(degraded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CatalogDegraded = append(r.CatalogDegraded, degraded)
}

// ParseFailureCount returns the number of recorded parse failures.
func (r *Recorder) ParseFailureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ParseFailures)
}

// LoadCatalog parses CatalogJSON.
func LoadCatalog(opts ...catalog.Option) (*domain.Catalog, error) {
	return catalog.Load([]byte(CatalogJSON), opts...)
}

// CatalogJSON is a small catalog document shared by package tests.
// Product "red" is priced per quantity, "white" has a flat price,
// "tulip" lists bare quantity labels and "broken" has a malformed price.
const CatalogJSON = `{
  "bot": {
    "payment": {"usdt_trc20": "TRX-ADDR", "btc": "BTC-ADDR"},
    "placeholders": {"product_image": "https://img.example/placeholder.png"}
  },
  "countries": ["Portugal", "Spain"],
  "faq": ["How do I pay?", "Shipping takes 3 days."],
  "how_it_works": ["Pick a product", "Pay", "Receive"],
  "reviews": {
    "red": [{"stars": 5, "text": "Lovely"}, {"stars": 4, "text": "Good"}],
    "white": "not a list"
  },
  "categories": {
    "flowers": {
      "name": "Flowers",
      "subcategories": {
        "roses": {
          "name": "Roses",
          "products": {
            "red": {
              "name": "Red Rose",
              "description": "Classic red",
              "image": "https://img.example/red.png",
              "quantities": {"1": "€10/unit", "10": "€12,500/unit", "5": 40}
            },
            "white": {
              "name": "White Rose",
              "description": "Pure white",
              "price": 7
            },
            "broken": {
              "name": "Broken Rose",
              "quantities": {"1": "call us"}
            }
          }
        },
        "tulips": {
          "name": "Tulips",
          "products": {
            "tulip": {
              "name": "Tulip",
              "quantities": ["1", "3"]
            }
          }
        }
      }
    },
    "gifts": {
      "name": "Gifts",
      "subcategories": {}
    }
  }
}`
