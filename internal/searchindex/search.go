package searchindex

import (
	"context"
	"fmt"
	"math"

	"enchant/internal/apperr"
)

// Hit is one matching document.
type Hit struct {
	ObjectID      string  `json:"object_id"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Content       string  `json:"content"`
	SequenceIndex int     `json:"sequence_index"`
	Score         float64 `json:"score"`
}

// Page is one page of ranked results.
type Page struct {
	Number int   `json:"page"`
	Count  int   `json:"page_count"`
	Offset int   `json:"offset"`
	Size   int   `json:"page_size"`
	Total  int   `json:"total"`
	Hits   []Hit `json:"hits"`
}

// Last returns the 1-based position of the final hit on the page, or Offset
// when the page is empty.
func (p *Page) Last() int {
	return p.Offset + len(p.Hits)
}

// Search runs query against the content field and returns page number
// pageNum (1-based) of size pageSize, best matches first with ties broken by
// commit order. When nothing matches, Search returns a nil page and a nil
// error. A page number beyond the last page yields a page with no hits.
func (i *Index) Search(ctx context.Context, query string, pageNum, pageSize int) (*Page, error) {
	if pageNum < 1 {
		return nil, apperr.New(apperr.KindInvalidInput, "search", fmt.Sprint(pageNum), "page number starts at 1")
	}
	if pageSize < 1 {
		return nil, apperr.New(apperr.KindInvalidInput, "search", fmt.Sprint(pageSize), "page size must be positive")
	}
	if pageNum-1 > math.MaxInt/pageSize {
		return nil, apperr.New(apperr.KindInvalidInput, "search", fmt.Sprint(pageNum), "page number too large")
	}
	match, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin search: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM documents_fts WHERE documents_fts MATCH ?`, match).Scan(&total); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "search", query, err)
	}
	if total == 0 {
		return nil, nil
	}

	page := &Page{
		Number: pageNum,
		Count:  (total-1)/pageSize + 1,
		Offset: (pageNum - 1) * pageSize,
		Size:   pageSize,
		Total:  total,
		Hits:   []Hit{},
	}
	if page.Offset >= total {
		return page, nil
	}

	rows, err := tx.QueryContext(ctx, `
        SELECT d.object_id, d."start", d."end", d.content, d.sequence_index, documents_fts.rank
        FROM documents_fts
        JOIN documents d ON d.id = documents_fts.rowid
        WHERE documents_fts MATCH ?
        ORDER BY documents_fts.rank, d.id
        LIMIT ? OFFSET ?`, match, pageSize, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hit Hit
		var rank float64
		if err := rows.Scan(&hit.ObjectID, &hit.Start, &hit.End, &hit.Content, &hit.SequenceIndex, &rank); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		// bm25 ranks are negative with better matches lower.
		hit.Score = -rank
		page.Hits = append(page.Hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return page, nil
}
