package controlplane

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/otel"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/client"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// ConsoleFilters parameterise the console tail. Empty fields are not sent.
type ConsoleFilters struct {
	EventType string
	Source    string
	Limit     int
}

// Console tails the channel's bounded event ring: a filter-parameterised
// 3-second poller plus copy-to-clipboard export. Poll failures keep the last
// snapshot.
type Console struct {
	Client  *client.Client
	Session *Session
	Status  StatusFunc
	Clip    Clipboard
	// Interval between poll rounds; zero uses PollInterval.
	Interval time.Duration
	// Now supplies timestamps for the markdown header; nil uses time.Now.
	Now func() time.Time

	mu      sync.Mutex
	filters ConsoleFilters
	events  []models.ConsoleEvent
	copied  string // "json" or "markdown" after a successful copy
}

// Events returns the last known event snapshot.
func (c *Console) Events() []models.ConsoleEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ConsoleEvent, len(c.events))
	copy(out, c.events)
	return out
}

// Filters returns the active filters.
func (c *Console) Filters() ConsoleFilters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Copied returns which export succeeded last ("json", "markdown", or "").
func (c *Console) Copied() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copied
}

// SetFilters replaces the filters and refreshes immediately, matching the
// panel's reload-on-filter-change behaviour.
func (c *Console) SetFilters(ctx context.Context, f ConsoleFilters) error {
	c.mu.Lock()
	c.filters = f
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Run polls events until ctx is cancelled, with an immediate first load.
func (c *Console) Run(ctx context.Context) {
	Poll(ctx, c.Interval, func(ctx context.Context) {
		_ = c.Refresh(ctx)
	})
}

// Refresh fetches recent events with the active filters. Failures are
// suppressed and the previous snapshot stays visible.
func (c *Console) Refresh(ctx context.Context) error {
	c.mu.Lock()
	f := c.filters
	c.mu.Unlock()
	limit := f.Limit
	if limit <= 0 {
		limit = models.DefaultConsoleLimit
	}
	events, err := c.Client.ConsoleEvents(ctx, c.Session.Channel(), limit, f.EventType, f.Source)
	otel.RecordPollTick(ctx, "console", err == nil)
	if err != nil {
		slog.Debug("console poll failed", "err", err)
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	c.mu.Lock()
	c.events = events
	c.mu.Unlock()
	return nil
}

// CopyJSON serialises the current event view to the clipboard.
func (c *Console) CopyJSON() error {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()
	b, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}
	return c.copy("json", string(b))
}

// CopyMarkdown wraps the current view in a fenced block with a header
// recording the channel, an ISO-8601 timestamp, and any active filters.
func (c *Console) CopyMarkdown() error {
	c.mu.Lock()
	events := c.events
	f := c.filters
	c.mu.Unlock()

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Console events: channel %s\n", c.Session.Channel())
	fmt.Fprintf(&sb, "Captured: %s\n", now().UTC().Format(time.RFC3339))
	if f.EventType != "" {
		fmt.Fprintf(&sb, "Filter event_type: %s\n", f.EventType)
	}
	if f.Source != "" {
		fmt.Fprintf(&sb, "Filter source: %s\n", f.Source)
	}
	sb.WriteString("\n```json\n")
	b, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}
	sb.Write(b)
	sb.WriteString("\n```\n")
	return c.copy("markdown", sb.String())
}

func (c *Console) copy(kind, text string) error {
	clip := c.Clip
	if clip == nil {
		clip = FallbackClipboard{Primary: CommandClipboard{}}
	}
	if err := clip.Write(text); err != nil {
		c.mu.Lock()
		c.copied = ""
		c.mu.Unlock()
		c.Status.set("Copy failed (clipboard unavailable).")
		return err
	}
	c.mu.Lock()
	c.copied = kind
	c.mu.Unlock()
	c.Status.set(fmt.Sprintf("Copied %s to clipboard.", kind))
	return nil
}
