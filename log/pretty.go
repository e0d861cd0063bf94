package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used for each part of a record.
type palette struct {
	plain, key, str, num, boolean, time, other lipgloss.Style
	level                                      map[slog.Level]lipgloss.Style
}

// makePalette binds styles to a renderer for w, which drops colors when w is
// not a terminal.
func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		plain:   r.NewStyle(),
		key:     fg("8"),
		str:     fg("6"),
		num:     fg("3"),
		boolean: fg("5"),
		time:    fg("4"),
		other:   fg("2"),
		level: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("8"),
			slog.Level(LevelDebug): fg("4"),
			slog.Level(LevelInfo):  fg("2"),
			slog.Level(LevelWarn):  fg("3").Bold(true),
			slog.Level(LevelError): fg("1").Bold(true),
		},
	}
}

// prettyHandler writes one colorized record per line in either text
// (key=value) or JSON layout. Groups are flattened into dotted keys.
type prettyHandler struct {
	opts   slog.HandlerOptions
	format Format
	style  palette
	mu     *sync.Mutex
	w      io.Writer
	prefix string
	attrs  []slog.Attr
}

func newPrettyHandler(
	w io.Writer,
	format Format,
	opts *slog.HandlerOptions,
) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		format: format,
		style:  makePalette(w),
		mu:     &sync.Mutex{},
		w:      w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if h.format == FormatJSON {
		buf.WriteByte('{')
	}

	if !r.Time.IsZero() {
		h.writeBuiltin(&buf, slog.Time(slog.TimeKey, r.Time), r.Level)
	}

	h.writeBuiltin(&buf, slog.Any(slog.LevelKey, r.Level), r.Level)

	if h.opts.AddSource {
		if src := r.Source(); src != nil && src.File != "" {
			h.writeBuiltin(&buf,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)),
				r.Level)
		}
	}

	h.writeBuiltin(&buf, slog.String(slog.MessageKey, r.Message), r.Level)

	for _, a := range h.attrs {
		h.writeAttr(&buf, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.prefix, a)

		return true
	})

	if h.format == FormatJSON {
		buf.WriteByte('}')
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)

	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}

		c.attrs = append(c.attrs, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

// writeBuiltin writes one of the record's fixed attributes after passing it
// through ReplaceAttr.
func (h *prettyHandler) writeBuiltin(
	buf *bytes.Buffer,
	a slog.Attr,
	level slog.Level,
) {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	if a.Equal(slog.Attr{}) {
		return
	}

	var style lipgloss.Style

	switch a.Key {
	case slog.LevelKey:
		style = h.levelStyle(level)
	case slog.TimeKey:
		style = h.style.time
	case slog.MessageKey:
		style = h.style.plain
	default:
		style = h.style.other
	}

	h.writeKey(buf, a.Key)
	h.writeScalar(buf, style, a.Value.Resolve().String(), true)
}

func (h *prettyHandler) levelStyle(level slog.Level) lipgloss.Style {
	if s, ok := h.style.level[level]; ok {
		return s
	}

	if level >= slog.LevelError {
		return h.style.level[slog.LevelError]
	}

	return h.style.other
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return
		}

		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range group {
			h.writeAttr(buf, prefix, g)
		}

		return
	}

	h.writeKey(buf, prefix+a.Key)
	h.writeValue(buf, a.Value)
}

func (h *prettyHandler) writeKey(buf *bytes.Buffer, key string) {
	switch h.format {
	case FormatJSON:
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}

		buf.WriteString(h.style.key.Render(jsonString(key)))
		buf.WriteByte(':')

	default:
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.style.key.Render(key))
		buf.WriteByte('=')
	}
}

func (h *prettyHandler) writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		h.writeScalar(buf, h.style.str, v.String(), true)

	case slog.KindInt64:
		h.writeScalar(buf, h.style.num, strconv.FormatInt(v.Int64(), 10), false)

	case slog.KindUint64:
		h.writeScalar(buf, h.style.num, strconv.FormatUint(v.Uint64(), 10), false)

	case slog.KindFloat64:
		h.writeScalar(buf, h.style.num,
			strconv.FormatFloat(v.Float64(), 'g', -1, 64), false)

	case slog.KindBool:
		h.writeScalar(buf, h.style.boolean, strconv.FormatBool(v.Bool()), false)

	case slog.KindDuration:
		h.writeScalar(buf, h.style.num, v.Duration().String(), true)

	case slog.KindTime:
		h.writeScalar(buf, h.style.time, v.Time().Format(time.RFC3339), true)

	default:
		s := v.String()
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		}

		h.writeScalar(buf, h.style.other, s, true)
	}
}

// writeScalar writes s styled. In JSON layout, quoted values become JSON
// strings; in text layout, s is only quoted when it contains spaces or is
// empty.
func (h *prettyHandler) writeScalar(
	buf *bytes.Buffer,
	style lipgloss.Style,
	s string,
	quoted bool,
) {
	switch {
	case h.format == FormatJSON && quoted:
		s = jsonString(s)
	case h.format != FormatJSON && needsQuote(s):
		s = strconv.Quote(s)
	}

	buf.WriteString(style.Render(s))
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}

	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r == 0x7f {
			return true
		}
	}

	return false
}

func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}

	return string(b)
}
