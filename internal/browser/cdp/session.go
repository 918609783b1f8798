// internal/browser/cdp/session.go
//
// Package cdp implements the page capabilities over the Chrome DevTools
// Protocol using chromedp. One Session owns one browser process and one tab.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
	"github.com/xkilldash9x/quickfinder/internal/browser/stealth"
)

// Session is a launched browser with the profile applied to its only tab.
type Session struct {
	cfg    Config
	ctx    context.Context
	logger *zap.Logger

	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	closeOnce   sync.Once
	closeErr    error

	page *Page
}

var _ schemas.Session = (*Session)(nil)

// Launch starts a browser for profile and prepares its tab. The browser's
// lifetime is independent of ctx; call Close to end it.
func Launch(ctx context.Context, cfg Config, profile stealth.Profile, logger *zap.Logger) (*Session, error) {
	logger = logger.Named("cdp")
	opts := stealth.AllocatorOptions(profile, cfg.Headless, cfg.ExecPath, cfg.Args)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Warnf),
	)

	s := &Session{
		cfg:         cfg,
		ctx:         tabCtx,
		logger:      logger,
		allocCancel: allocCancel,
		tabCancel:   tabCancel,
	}
	s.page = &Page{session: s, viewport: profile.Viewport}
	s.page.doc = &document{session: s, name: "document"}

	setup := chromedp.Tasks{
		page.Enable(),
		dom.Enable(),
		stealth.Apply(profile, cfg.ExtendedEvasions, logger),
	}
	if err := s.run(ctx, 2*s.cfg.NavigationTimeout, setup); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to prepare browser tab: %w", err)
	}

	logger.Info("Browser session launched.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// Page returns the session's only page.
func (s *Session) Page() schemas.Page { return s.page }

// Close shuts the tab and the browser process down. It is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		err := chromedp.Cancel(s.ctx)
		s.tabCancel()
		s.allocCancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		s.logger.Info("Browser session closed.")
	})
	return s.closeErr
}

// run executes actions on the tab, bounded by both op and timeout.
func (s *Session) run(op context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = s.cfg.ActionTimeout
	}
	if timeout <= 0 {
		timeout = DefaultConfig().ActionTimeout
	}
	opCtx, cancelOp := context.WithTimeout(op, timeout)
	defer cancelOp()

	ctx, cancel := combine(s.ctx, opCtx)
	defer cancel()

	err := chromedp.Run(ctx, actions...)
	if err != nil && opCtx.Err() == context.DeadlineExceeded && op.Err() == nil {
		return fmt.Errorf("cdp operation timed out after %v: %w", timeout, err)
	}
	return err
}
