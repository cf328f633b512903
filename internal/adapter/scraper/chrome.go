package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"reviewrag/config"
	"reviewrag/internal/domain"
	"reviewrag/internal/metrics"
	"reviewrag/internal/port"
)

const (
	reviewsTabSelector = `button[data-value="Reviews"], button[data-value="評論"], [data-tab-index="1"]`
	tabWait            = 10 * time.Second
)

// scrollReviews scrolls the review pane (or the window when no pane is found),
// presses "more reviews" when offered and returns the number of loaded reviews.
const scrollReviews = `(() => {
	const first = document.querySelector('div[data-review-id]');
	const pane = document.querySelector('div.m6QErb.DxyBCb.kA9KIf.dS8AEf') || (first && first.parentElement);
	if (pane) {
		pane.scrollTop = pane.scrollHeight;
	} else {
		window.scrollTo(0, document.body.scrollHeight);
	}
	const more = document.querySelector('[data-value="See more reviews"], [data-value="查看更多評論"]');
	if (more) {
		more.click();
	}
	return document.querySelectorAll('div[data-review-id]').length;
})()`

const expandReviews = `(() => {
	const buttons = document.querySelectorAll('button.w8nwRe.kyuRq');
	buttons.forEach(b => b.click());
	return buttons.length;
})()`

// ChromeScraper drives a Chrome instance to render a Google Maps listing.
type ChromeScraper struct {
	cfg    config.ScraperConfig
	logger *zap.Logger
	now    func() time.Time
}

var _ port.Scraper = (*ChromeScraper)(nil)

func NewChromeScraper(cfg config.ScraperConfig, logger *zap.Logger) *ChromeScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeScraper{cfg: cfg, logger: logger, now: time.Now}
}

func (s *ChromeScraper) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if s.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.cfg.UserAgent))
	}
	if s.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromePath))
	}
	return opts
}

// Scrape renders url, loads up to opts.MaxReviews reviews and parses them.
func (s *ChromeScraper) Scrape(ctx context.Context, url string, opts port.ScrapeOptions) (domain.ScrapeResult, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	s.logger.Info("Opening listing", zap.String("url", url))
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("h1", chromedp.ByQuery),
	); err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("failed to load %s: %w", url, err)
	}

	tabCtx, cancelTab := context.WithTimeout(browserCtx, tabWait)
	err := chromedp.Run(tabCtx,
		chromedp.Click(reviewsTabSelector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.Sleep(s.cfg.ScrollPause),
	)
	cancelTab()
	if err != nil {
		s.logger.Warn("Reviews tab not found, scrolling the page instead", zap.Error(err))
	}

	for i := 0; i < s.cfg.MaxScrolls; i++ {
		var loaded int
		if err := chromedp.Run(browserCtx,
			chromedp.Evaluate(scrollReviews, &loaded),
			chromedp.Sleep(s.cfg.ScrollPause),
		); err != nil {
			return domain.ScrapeResult{}, fmt.Errorf("failed to scroll reviews: %w", err)
		}
		s.logger.Debug("Scrolled review pane", zap.Int("round", i+1), zap.Int("loaded", loaded))
		if opts.MaxReviews > 0 && loaded >= opts.MaxReviews {
			break
		}
	}

	var expanded int
	var html string
	if err := chromedp.Run(browserCtx,
		chromedp.Evaluate(expandReviews, &expanded),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("failed to read page: %w", err)
	}

	now := s.now()
	business, reviews, err := Parse(html, opts, now)
	if err != nil {
		return domain.ScrapeResult{}, err
	}
	business.URL = url

	metrics.ScrapedReviewsTotal.Add(float64(len(reviews)))
	s.logger.Info("Scraped reviews",
		zap.String("business", business.Name),
		zap.Int("reviews", len(reviews)),
		zap.Int("expanded", expanded),
	)

	return domain.ScrapeResult{
		Business:  business,
		URL:       url,
		ScrapedAt: now,
		Reviews:   reviews,
	}, nil
}
