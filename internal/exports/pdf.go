package exports

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFRenderer turns a standalone HTML page into a PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

const defaultPDFTimeout = 30 * time.Second

// A4 in inches.
const (
	a4WidthInch  = 8.27
	a4HeightInch = 11.69
)

// ChromePDF prints pages with a headless Chrome started per call.
type ChromePDF struct {
	// ExecPath points at the Chrome binary. Empty lets chromedp find one.
	ExecPath string
	Timeout  time.Duration
}

// NewChromePDF constructs a ChromePDF.
func NewChromePDF(execPath string, timeout time.Duration) *ChromePDF {
	if timeout <= 0 {
		timeout = defaultPDFTimeout
	}
	return &ChromePDF{ExecPath: execPath, Timeout: timeout}
}

// RenderPDF loads html into a blank tab and prints it on A4 with backgrounds.
func (r *ChromePDF) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultPDFTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthInch).
				WithPaperHeight(a4HeightInch).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, nil
}
