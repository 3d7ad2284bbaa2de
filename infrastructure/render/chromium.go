package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bibliotheca/gateway/domain/render"
	"github.com/bibliotheca/gateway/internal/config"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromiumRenderer prints assembled markup to PDF with headless Chromium.
type ChromiumRenderer struct {
	timeout     time.Duration
	logger      *slog.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromiumRenderer creates a renderer that launches a local browser, or
// connects to cfg.RemoteURL when it is set.
func NewChromiumRenderer(cfg config.ChromiumConfig, logger *slog.Logger) *ChromiumRenderer {
	if logger == nil {
		logger = slog.Default()
	}

	r := &ChromiumRenderer{
		timeout: cfg.Timeout(),
		logger:  logger,
	}

	if cfg.RemoteURL() != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL())
		return r
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox() {
		opts = append(opts, chromedp.NoSandbox)
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// Render converts the markup to HTML and prints it. Conversion and browser
// failures are reported as a failed result with status 500; only a cancelled
// or expired ctx is returned as an error.
func (r *ChromiumRenderer) Render(ctx context.Context, text string) (render.Result, error) {
	start := time.Now()

	doc, err := HTML("", text)
	if err != nil {
		return render.Failure(http.StatusInternalServerError, err.Error()), nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return render.Result{}, fmt.Errorf("render pdf: %w", errors.Join(ctxErr, err))
		}
		r.logger.Error("chromium render failed", slog.String("error", err.Error()))
		return render.Failure(http.StatusInternalServerError, err.Error()), nil
	}
	if len(pdf) == 0 {
		return render.Failure(http.StatusInternalServerError, "generated PDF is empty"), nil
	}

	r.logger.Debug("pdf rendered",
		slog.Int("bytes", len(pdf)),
		slog.Duration("duration", time.Since(start)),
	)
	return render.Success(pdf), nil
}

// Close shuts down the browser allocator.
func (r *ChromiumRenderer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}
