package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// FixedFormatWriter turns zerolog JSON lines into fixed-width columns so log
// files stay readable without a JSON viewer.
//
//	2026-10-17 12:00:00.000 [INF] [runner    ] [heartbeat   ] Run loop started run=5f0c...
//	2026-10-17 12:00:01.200 [ERR] [sender    ] [            ] Send failed err="broken pipe"
type FixedFormatWriter struct {
	w io.Writer
}

// NewFixedFormatWriter wraps w.
func NewFixedFormatWriter(w io.Writer) *FixedFormatWriter {
	return &FixedFormatWriter{w: w}
}

const (
	componentWidth = 10
	serviceWidth   = 12
	timestampWidth = 23
)

var levelTags = map[string]string{
	"trace": "TRC",
	"debug": "DBG",
	"info":  "INF",
	"warn":  "WRN",
	"error": "ERR",
	"fatal": "FTL",
	"panic": "PNC",
}

func (f *FixedFormatWriter) Write(p []byte) (int, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		return f.w.Write(p)
	}

	ts := formatTimestamp(popString(fields, "time"))
	lvl, ok := levelTags[popString(fields, "level")]
	if !ok {
		lvl = "???"
	}
	component := fitColumn(popString(fields, "component"), componentWidth)
	service := fitColumn(popString(fields, "service"), serviceWidth)
	message := popString(fields, "message")
	delete(fields, "caller")

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] [%s] %s", ts, lvl, component, service, message)
	if extra := formatExtra(fields); extra != "" {
		b.WriteByte(' ')
		b.WriteString(extra)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(f.w, b.String())
	// zerolog treats a short count as a failed write.
	return len(p), err
}

func popString(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	delete(fields, key)
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func fitColumn(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatTimestamp turns an RFC3339 timestamp into "2006-01-02 15:04:05.000".
func formatTimestamp(ts string) string {
	if len(ts) < 19 {
		return fitColumn(ts, timestampWidth)
	}

	result := strings.Replace(ts, "T", " ", 1)
	if idx := strings.IndexAny(result[19:], "Z+-"); idx >= 0 {
		result = result[:19+idx]
	}

	dot := strings.LastIndex(result, ".")
	if dot == -1 {
		result += ".000"
	} else if frac := len(result) - dot - 1; frac > 3 {
		result = result[:dot+4]
	} else if frac < 3 {
		result += strings.Repeat("0", 3-frac)
	}

	return fitColumn(result, timestampWidth)
}

// formatExtra renders the remaining fields as sorted key=value pairs.
func formatExtra(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s := fmt.Sprintf("%v", fields[k])
		if strings.ContainsAny(s, " \t\n\"=") {
			parts = append(parts, fmt.Sprintf("%s=%q", k, s))
		} else {
			parts = append(parts, k+"="+s)
		}
	}
	return strings.Join(parts, " ")
}
