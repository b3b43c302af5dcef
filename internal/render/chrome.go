package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/yungbote/labflow-backend/internal/platform/envutil"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// A4 in inches, zero margins, backgrounds printed.
const (
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
)

type ChromeConfig struct {
	// ExecPath overrides the browser binary; empty lets chromedp search PATH.
	ExecPath  string
	NoSandbox bool
}

func ChromeConfigFromEnv() ChromeConfig {
	return ChromeConfig{
		ExecPath:  envutil.String("CHROME_PATH", ""),
		NoSandbox: envutil.Bool("CHROME_NO_SANDBOX", true),
	}
}

// ChromePrinter prints through a headless Chrome. A single browser process is
// shared; each print gets its own tab.
type ChromePrinter struct {
	log         *logger.Logger
	allocCtx    context.Context
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
}

func NewChromePrinter(log *logger.Logger, cfg ChromeConfig) (*ChromePrinter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.WindowSize(1024, 1440),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if p := strings.TrimSpace(cfg.ExecPath); p != "" {
		opts = append(opts, chromedp.ExecPath(p))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelTab := chromedp.NewContext(allocCtx)
	// Start the browser eagerly so a missing binary fails at boot.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return &ChromePrinter{
		log:         log.With("component", "ChromePrinter"),
		allocCtx:    allocCtx,
		browserCtx:  browserCtx,
		cancelAlloc: cancelAlloc,
		cancelTab:   cancelTab,
	}, nil
}

func (p *ChromePrinter) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	tabCtx, cancel := chromedp.NewContext(p.browserCtx)
	defer cancel()
	// Propagate the caller deadline into the tab.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, nil
}

func (p *ChromePrinter) Close() {
	if p == nil {
		return
	}
	p.cancelTab()
	p.cancelAlloc()
}
