package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Default capture parameters: a phone-sized viewport matching the layout of
// the /events/{index} page.
const (
	DefaultWidth      = 390
	DefaultHeight     = 844
	DefaultTimeoutSec = 30
)

// CaptureOptions defines parameters for a Chromium-based screenshot capture.
type CaptureOptions struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/events/0?mode=map".
	URL string

	// OutputPath is where the PNG screenshot will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero,
	// DefaultTimeoutSec is used.
	Timeout time.Duration

	// Username and Password, when set, are sent as HTTP Basic credentials
	// with every request the browser makes.
	Username string
	Password string
}

// BasicAuthHeader is the Authorization header value for user and pass.
func BasicAuthHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func (o CaptureOptions) headers() network.Headers {
	if o.Username == "" && o.Password == "" {
		return nil
	}
	return network.Headers{"Authorization": BasicAuthHeader(o.Username, o.Password)}
}

func (o *CaptureOptions) applyDefaults() error {
	if o.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if o.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return nil
}

// ScreenURL builds the renderer URL of one screen state.
func ScreenURL(base string, index int, scroll float64, mode, theme string) string {
	q := url.Values{}
	if scroll != 0 {
		q.Set("scroll", strconv.FormatFloat(scroll, 'f', -1, 64))
	}
	if mode != "" {
		q.Set("mode", mode)
	}
	if theme != "" {
		q.Set("theme", theme)
	}
	u := fmt.Sprintf("%s/events/%d", base, index)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// PreviewPath is where the preview of event index is stored under dir.
func PreviewPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("event-%d.png", index))
}

// CaptureScreenPNG launches a headless Chromium instance via chromedp,
// navigates to opts.URL, waits for the page to signal that rendering is
// complete and writes a full-page PNG screenshot.
//
// Rendering-complete condition: the root element carries
// data-ready="true".
func CaptureScreenPNG(parentCtx context.Context, opts CaptureOptions) error {
	if err := opts.applyDefaults(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if h := opts.headers(); h != nil {
		tasks = append(tasks, network.Enable(), network.SetExtraHTTPHeaders(h))
	}
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}
