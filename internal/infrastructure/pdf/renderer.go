// Package pdf renders documents to PDF through headless Chromium.
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"nexa/internal/core/apperror"
	"nexa/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second

	// A4 in inches
	paperWidth  = 8.27
	paperHeight = 11.69
	margin      = 0.4
)

// Config controls the Chromium allocator.
type Config struct {
	// RemoteURL points at an already-running Chromium DevTools endpoint.
	// Empty means launch a local headless instance.
	RemoteURL string

	// NoSandbox is required when running as root inside a container
	NoSandbox bool

	Timeout time.Duration
}

// Renderer converts HTML documents to A4 PDFs.
type Renderer struct {
	cfg         Config
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewRenderer creates a renderer and its Chromium allocator. Call Close
// when done.
func NewRenderer(cfg Config) *Renderer {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	r := &Renderer{cfg: cfg}

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// Render converts an HTML document to PDF bytes.
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, apperror.NewValidation("document body is empty")
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx)
	defer browserCancel()

	var pdfData []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(margin).
				WithMarginRight(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperror.NewInternal(fmt.Errorf("pdf render timed out after %v: %w", r.cfg.Timeout, err))
		}
		return nil, apperror.NewInternal(fmt.Errorf("pdf render failed: %w", err))
	}

	if len(pdfData) == 0 {
		return nil, apperror.NewInternal(fmt.Errorf("rendered pdf is empty"))
	}

	logger.Debug(ctx, "pdf rendered",
		"bytes", len(pdfData),
		"duration", time.Since(start))

	return pdfData, nil
}

// Close releases the Chromium allocator.
func (r *Renderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}
