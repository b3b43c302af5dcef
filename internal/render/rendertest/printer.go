// Package rendertest provides a Printer that needs no browser.
package rendertest

import (
	"context"
	"errors"
	"sync"
)

// Printer records every document and returns a tiny fake PDF.
type Printer struct {
	mu    sync.Mutex
	Err   error
	Pages []string
}

func (p *Printer) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	if html == "" {
		return nil, errors.New("empty document")
	}
	p.Pages = append(p.Pages, html)
	return []byte("%PDF-1.4\n% fake\n"), nil
}

func (p *Printer) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Pages) == 0 {
		return ""
	}
	return p.Pages[len(p.Pages)-1]
}
