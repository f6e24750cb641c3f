package logging

import (
	"context"
	"log/slog"
)

// lazyHandler forwards records to whatever handler Init installed at the time
// the record is written. Package-level loggers are created during package
// initialization, long before main calls Init.
type lazyHandler struct {
	component string
	attrs     []slog.Attr
	groups    []string
}

func (h *lazyHandler) current() slog.Handler {
	next := Logger().Handler().WithAttrs([]slog.Attr{slog.String("component", h.component)})
	if len(h.attrs) > 0 {
		next = next.WithAttrs(h.attrs)
	}
	for _, g := range h.groups {
		next = next.WithGroup(g)
	}
	return next
}

func (h *lazyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return Logger().Handler().Enabled(ctx, level)
}

func (h *lazyHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

func (h *lazyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &lazyHandler{component: h.component, attrs: merged, groups: h.groups}
}

func (h *lazyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &lazyHandler{component: h.component, attrs: h.attrs, groups: groups}
}
