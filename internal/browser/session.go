// internal/browser/session.go
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
	"github.com/anuj123upadhyay/pagedriver/internal/browser/stealth"
	"github.com/anuj123upadhyay/pagedriver/internal/config"
	"github.com/anuj123upadhyay/pagedriver/internal/selector"
)

// Session drives a single browser tab over the DevTools protocol. It
// implements schemas.Session; one run owns exactly one Session and releases
// it through Close on every exit path.
type Session struct {
	id          string
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger
	cfg         *config.Config

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.Session = (*Session)(nil)

// NewSession launches the browser, creates the tab context, and applies the
// stealth persona when requested. Proxy credentials, if any, are answered
// over the DevTools auth challenge.
func NewSession(parent context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	sessionLogger := logger.Named("browser").With(zap.String("session_id", sessionID))

	proxy, err := cfg.Proxy.Resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve proxy configuration: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocatorOptions(cfg, proxy)...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sessionLogger.Sugar().Debugf),
		chromedp.WithErrorf(sessionLogger.Sugar().Errorf),
	)

	s := &Session{
		id:          sessionID,
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      sessionLogger,
		cfg:         cfg,
	}

	// The first Run launches the browser process and attaches the target.
	if err := chromedp.Run(ctx); err != nil {
		s.release()
		return nil, fmt.Errorf("%w: failed to launch browser: %v", schemas.ErrSessionTerminated, err)
	}

	if proxy != nil && proxy.Username != "" {
		if err := s.enableProxyAuth(proxy); err != nil {
			s.release()
			return nil, fmt.Errorf("%w: failed to configure proxy authentication: %v", schemas.ErrSessionTerminated, err)
		}
	}

	if vp := cfg.Browser.Viewport; vp.Width > 0 && vp.Height > 0 {
		if err := chromedp.Run(ctx, chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height))); err != nil {
			sessionLogger.Warn("Could not set viewport, keeping browser default.", zap.Error(err))
		}
	}

	// Stealth is best-effort: a failure degrades to an unstealthed session
	// rather than aborting the run.
	if cfg.Browser.StealthMode {
		if err := chromedp.Run(ctx, stealth.Apply(stealth.DefaultPersona, sessionLogger)); err != nil {
			sessionLogger.Warn("Stealth setup failed, continuing without it.", zap.Error(err))
		} else {
			sessionLogger.Info("Stealth mode enabled.")
		}
	}

	sessionLogger.Info("Browser session started.",
		zap.String("browser_type", cfg.Browser.Type),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Bool("proxied", proxy != nil),
	)
	return s, nil
}

// allocatorOptions builds the launch flags for the browser process.
func allocatorOptions(cfg *config.Config, proxy *config.ProxySettings) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !cfg.Browser.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.Browser.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Browser.ExecPath))
	}
	if proxy != nil {
		opts = append(opts, chromedp.ProxyServer(proxy.Server))
	}
	for _, arg := range cfg.Browser.Args {
		if name, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "="); found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts
}

// enableProxyAuth answers proxy auth challenges with the managed credentials.
func (s *Session) enableProxyAuth(proxy *config.ProxySettings) error {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *fetch.EventAuthRequired:
			go func() {
				resp := &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: proxy.Username,
					Password: proxy.Password,
				}
				if err := chromedp.Run(s.ctx, fetch.ContinueWithAuth(ev.RequestID, resp)); err != nil {
					s.logger.Debug("Failed to answer proxy auth challenge.", zap.Error(err))
				}
			}()
		case *fetch.EventRequestPaused:
			go func() {
				if err := chromedp.Run(s.ctx, fetch.ContinueRequest(ev.RequestID)); err != nil {
					s.logger.Debug("Failed to continue paused request.", zap.Error(err))
				}
			}()
		}
	})
	return chromedp.Run(s.ctx, fetch.Enable().WithHandleAuthRequests(true))
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string { return s.id }

// Terminated reports whether the browser connection is gone.
func (s *Session) Terminated() bool { return s.ctx.Err() != nil }

// Close tears the session down. Safe to call more than once.
func (s *Session) Close(_ context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")
	s.release()
	return nil
}

func (s *Session) release() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// run executes chromedp actions bound to both the session lifetime and the
// caller's deadline.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// resolve compiles the target and blocks until a matching element is visible
// or the caller's deadline elapses. Handles are never cached: every action
// resolves its target fresh, since the page mutates between steps.
func (s *Session) resolve(ctx context.Context, t schemas.Target) (selector.Query, error) {
	q, err := selector.Compile(t)
	if err != nil {
		return q, fmt.Errorf("%w: %v", schemas.ErrElementNotFound, err)
	}
	if err := s.run(ctx, chromedp.WaitVisible(q.Expr, q.Option())); err != nil {
		return q, s.notFound(ctx, t, err)
	}
	return q, nil
}

// notFound classifies a resolution failure as a recoverable outcome.
func (s *Session) notFound(ctx context.Context, t schemas.Target, err error) error {
	if s.Terminated() {
		return fmt.Errorf("%w: %v", schemas.ErrSessionTerminated, s.ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return fmt.Errorf("%w: %q (timeout waiting for element)", schemas.ErrElementNotFound, t.Selector)
	}
	return fmt.Errorf("%w: %q: %v", schemas.ErrElementNotFound, t.Selector, err)
}

// classify folds low-level failures into the per-action error taxonomy.
func (s *Session) classify(err error, sentinel error) error {
	if err == nil {
		return nil
	}
	if s.Terminated() {
		return fmt.Errorf("%w: %v", schemas.ErrSessionTerminated, s.ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", schemas.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// -- Navigation --

func (s *Session) Navigate(ctx context.Context, targetURL string) (string, error) {
	if _, ok := ctx.Deadline(); !ok && s.cfg.Engine.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Engine.NavigationTimeout)
		defer cancel()
	}
	var finalURL string
	err := s.run(ctx, chromedp.Navigate(targetURL), chromedp.Location(&finalURL))
	if err != nil {
		return "", s.classify(err, schemas.ErrNavigation)
	}
	return finalURL, nil
}

func (s *Session) NavigateBack(ctx context.Context) (string, error) {
	return s.historyMove(ctx, chromedp.NavigateBack())
}

func (s *Session) NavigateForward(ctx context.Context) (string, error) {
	return s.historyMove(ctx, chromedp.NavigateForward())
}

func (s *Session) Reload(ctx context.Context) (string, error) {
	return s.historyMove(ctx, chromedp.Reload())
}

func (s *Session) historyMove(ctx context.Context, move chromedp.Action) (string, error) {
	var finalURL string
	err := s.run(ctx, move, chromedp.Location(&finalURL))
	if err != nil {
		return "", s.classify(err, schemas.ErrNavigation)
	}
	return finalURL, nil
}

// -- Pure reads --

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := s.run(ctx, chromedp.Location(&u)); err != nil {
		return "", s.classify(err, schemas.ErrNavigation)
	}
	return u, nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", s.classify(err, schemas.ErrNavigation)
	}
	return title, nil
}

// -- Element interaction --

func (s *Session) Click(ctx context.Context, t schemas.Target) error {
	q, err := s.resolve(ctx, t)
	if err != nil {
		return err
	}
	return s.classify(s.run(ctx, chromedp.Click(q.Expr, q.Option())), schemas.ErrElementNotFound)
}

func (s *Session) Hover(ctx context.Context, t schemas.Target) error {
	q, err := s.resolve(ctx, t)
	if err != nil {
		return err
	}
	// chromedp has no native hover; dispatch the event in page context.
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.dispatchEvent(new MouseEvent('mouseover', {bubbles: true}));
		el.dispatchEvent(new MouseEvent('mouseenter', {bubbles: false}));
		return true;
	})()`, q.JS())
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return s.classify(err, schemas.ErrElementNotFound)
	}
	if !ok {
		return fmt.Errorf("%w: %q", schemas.ErrElementNotFound, t.Selector)
	}
	return nil
}

func (s *Session) Focus(ctx context.Context, t schemas.Target) error {
	q, err := s.resolve(ctx, t)
	if err != nil {
		return err
	}
	return s.classify(s.run(ctx, chromedp.Focus(q.Expr, q.Option())), schemas.ErrElementNotFound)
}

// Fill replaces the field's content wholesale.
func (s *Session) Fill(ctx context.Context, t schemas.Target, value string) error {
	q, err := s.resolve(ctx, t)
	if err != nil {
		return err
	}
	return s.classify(s.run(ctx,
		chromedp.Clear(q.Expr, q.Option()),
		chromedp.SetValue(q.Expr, value, q.Option()),
	), schemas.ErrElementNotFound)
}

// Type appends keystroke by keystroke without clearing existing content.
func (s *Session) Type(ctx context.Context, t schemas.Target, value string) error {
	q, err := s.resolve(ctx, t)
	if err != nil {
		return err
	}
	return s.classify(s.run(ctx, chromedp.SendKeys(q.Expr, value, q.Option())), schemas.ErrElementNotFound)
}

func (s *Session) SelectOption(ctx context.Context, t schemas.Target, value string) error {
	q, err := s.resolve(ctx, t)
	if err != nil {
		return err
	}
	return s.classify(s.run(ctx, chromedp.SetValue(q.Expr, value, q.Option())), schemas.ErrElementNotFound)
}

// SetChecked is idempotent: checking an already-checked box is a no-op
// success, and likewise for unchecking.
func (s *Session) SetChecked(ctx context.Context, t schemas.Target, checked bool) error {
	q, err := s.resolve(ctx, t)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return 'notfound';
		if (Boolean(el.checked) !== %t) el.click();
		return 'ok';
	})()`, q.JS(), checked)
	var state string
	if err := s.run(ctx, chromedp.Evaluate(script, &state)); err != nil {
		return s.classify(err, schemas.ErrElementNotFound)
	}
	if state != "ok" {
		return fmt.Errorf("%w: %q", schemas.ErrElementNotFound, t.Selector)
	}
	return nil
}

func (s *Session) PressKey(ctx context.Context, t *schemas.Target, key string) error {
	seq, err := keySequence(key)
	if err != nil {
		return fmt.Errorf("%w: %v", schemas.ErrScript, err)
	}
	if t == nil {
		// No target: the key goes to whatever currently holds focus.
		return s.classify(s.run(ctx, chromedp.KeyEvent(seq)), schemas.ErrScript)
	}
	q, err := s.resolve(ctx, *t)
	if err != nil {
		return err
	}
	return s.classify(s.run(ctx, chromedp.SendKeys(q.Expr, seq, q.Option())), schemas.ErrElementNotFound)
}

// -- Extraction --

func (s *Session) ExtractText(ctx context.Context, t schemas.Target) (string, error) {
	q, err := s.resolve(ctx, t)
	if err != nil {
		return "", err
	}
	var text string
	if err := s.run(ctx, chromedp.Text(q.Expr, &text, q.Option())); err != nil {
		return "", s.classify(err, schemas.ErrElementNotFound)
	}
	return text, nil
}

func (s *Session) ExtractAttributes(ctx context.Context, t schemas.Target) (map[string]string, error) {
	q, err := s.resolve(ctx, t)
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]string)
	if err := s.run(ctx, chromedp.Attributes(q.Expr, &attrs, q.Option())); err != nil {
		return nil, s.classify(err, schemas.ErrElementNotFound)
	}
	return attrs, nil
}

func (s *Session) HTML(ctx context.Context, t *schemas.Target) (string, error) {
	var markup string
	if t == nil {
		if err := s.run(ctx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
			return "", s.classify(err, schemas.ErrScript)
		}
		return markup, nil
	}
	q, err := s.resolve(ctx, *t)
	if err != nil {
		return "", err
	}
	if err := s.run(ctx, chromedp.OuterHTML(q.Expr, &markup, q.Option())); err != nil {
		return "", s.classify(err, schemas.ErrElementNotFound)
	}
	return markup, nil
}

func (s *Session) Screenshot(ctx context.Context, t *schemas.Target) ([]byte, error) {
	var buf []byte
	if t == nil {
		if err := s.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
			return nil, s.classify(err, schemas.ErrScript)
		}
		return buf, nil
	}
	q, err := s.resolve(ctx, *t)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, chromedp.Screenshot(q.Expr, &buf, q.Option())); err != nil {
		return nil, s.classify(err, schemas.ErrElementNotFound)
	}
	return buf, nil
}

// -- Advanced --

func (s *Session) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	var raw []byte
	err := s.run(ctx, chromedp.Evaluate(script, &raw,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		return nil, s.classify(err, schemas.ErrScript)
	}
	if len(raw) == 0 {
		raw = []byte("null")
	}
	return json.RawMessage(raw), nil
}

func (s *Session) WaitForElement(ctx context.Context, t schemas.Target) error {
	_, err := s.resolve(ctx, t)
	return err
}

func (s *Session) Scroll(ctx context.Context, t *schemas.Target, pixels int) error {
	if t != nil {
		q, err := s.resolve(ctx, *t)
		if err != nil {
			return err
		}
		return s.classify(s.run(ctx, chromedp.ScrollIntoView(q.Expr, q.Option())), schemas.ErrElementNotFound)
	}
	script := "window.scrollTo(0, document.body.scrollHeight)"
	if pixels != 0 {
		script = fmt.Sprintf("window.scrollBy(0, %d)", pixels)
	}
	return s.classify(s.run(ctx, chromedp.Evaluate(script, nil)), schemas.ErrScript)
}
