package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/kiosk/pkg/domain"
)

// Pages adapts a Loam repository of Markdown documents to ports.PageSource.
// Each document is a page; its ID is the frontmatter "id" or the file name
// without extension.
type Pages struct {
	Repo *loam.TypedRepository[PageMetadata]
}

// New creates a new Loam page source.
func New(repo *loam.TypedRepository[PageMetadata]) *Pages {
	return &Pages{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path and wraps it.
func Open(path string) (*Pages, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numeric frontmatter consistent (json.Number).
	// ReadOnly avoids Loam's dev sandbox; pages are never written.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[PageMetadata](repo)), nil
}

// Page returns the page with the given ID. The listing resolves the ID to a
// document; the body is read from the document itself.
func (p *Pages) Page(ctx context.Context, id string) (domain.Page, error) {
	pages, err := p.load(ctx)
	if err != nil {
		return domain.Page{}, err
	}
	entry, ok := pages[id]
	if !ok {
		return domain.Page{}, fmt.Errorf("%w: page %s", domain.ErrNotFound, id)
	}
	doc, err := p.Repo.Get(ctx, entry.docID)
	if err != nil {
		return domain.Page{}, fmt.Errorf("loam get failed for %s: %w", entry.docID, err)
	}
	page := entry.page
	page.Body = strings.TrimSpace(doc.Content)
	if doc.Data.Title != "" {
		page.Title = doc.Data.Title
	}
	return page, nil
}

// ListPages returns the page IDs sorted by their "order" frontmatter, then ID.
func (p *Pages) ListPages(ctx context.Context) ([]string, error) {
	pages, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pages))
	for id := range pages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := pages[ids[i]].page, pages[ids[j]].page
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	return ids, nil
}

// listed is a page known from the listing, which carries metadata only.
type listed struct {
	page  domain.Page
	docID string
}

func (p *Pages) load(ctx context.Context) (map[string]listed, error) {
	docs, err := p.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	pages := make(map[string]listed, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: page '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		pages[id] = listed{
			page: domain.Page{
				ID:    id,
				Title: doc.Data.Title,
				Order: doc.Data.order(),
			},
			docID: doc.ID,
		}
	}
	return pages, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
