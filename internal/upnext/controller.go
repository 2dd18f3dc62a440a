// Package upnext runs the countdown shown when content ends with autoplay on
// and a queued next item: hidden → visible → tick* → navigate.
package upnext

import (
	"log/slog"
	"sync"
	"time"

	"playbackengine/internal/domain"
	"playbackengine/internal/metrics"
)

// Dispatcher is the slice of the session the controller drives.
type Dispatcher interface {
	Dispatch(a domain.Action)
}

// Navigator receives the completion signal exactly once per countdown.
type Navigator interface {
	NavigateNext(contentID string, autoplay bool)
}

type Controller struct {
	dispatcher Dispatcher
	navigator  Navigator
	logger     *slog.Logger

	mu        sync.Mutex
	stop      chan struct{}
	running   bool
	navigated bool
	nextID    domain.ContentID
}

func NewController(dispatcher Dispatcher, navigator Navigator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{dispatcher: dispatcher, navigator: navigator, logger: logger}
}

// Start begins the countdown. A countdown already running is superseded.
func (c *Controller) Start(nextID domain.ContentID, seconds int) {
	if seconds <= 0 {
		seconds = 10
	}

	c.mu.Lock()
	c.stopLocked()
	stop := make(chan struct{})
	c.stop = stop
	c.running = true
	c.navigated = false
	c.nextID = nextID
	c.mu.Unlock()

	c.dispatcher.Dispatch(domain.UpNextStart{Seconds: seconds})
	go c.run(stop, nextID, seconds)
}

func (c *Controller) run(stop chan struct{}, nextID domain.ContentID, seconds int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining--
			c.dispatcher.Dispatch(domain.UpNextTick{})
			if remaining <= 0 {
				c.navigate(stop, nextID)
				return
			}
		}
	}
}

// Cancel returns to the normal ended state without navigating.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
	c.dispatcher.Dispatch(domain.UpNextCancel{})
}

// ConfirmNow skips the remaining countdown and navigates immediately.
func (c *Controller) ConfirmNow() {
	c.mu.Lock()
	nextID := c.nextID
	running := c.running
	c.stopLocked()
	c.mu.Unlock()
	if running {
		c.navigate(nil, nextID)
	}
}

// Stop cancels any countdown without dispatching; used on session teardown.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.running = false
}

// navigate commits the countdown. A non-nil stop channel identifies the
// countdown the caller ran under; a final tick that lost the race against
// Cancel or a restart carries a superseded channel and must not fire.
func (c *Controller) navigate(stop chan struct{}, nextID domain.ContentID) {
	c.mu.Lock()
	if c.navigated || (stop != nil && stop != c.stop) {
		c.mu.Unlock()
		return
	}
	c.navigated = true
	c.running = false
	c.mu.Unlock()

	c.dispatcher.Dispatch(domain.UpNextCancel{})
	metrics.UpNextNavigationsTotal.Inc()
	c.logger.Info("up-next navigation", slog.String("nextContentId", string(nextID)))
	c.navigator.NavigateNext(string(nextID), true)
}
