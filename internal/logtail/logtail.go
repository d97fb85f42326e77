package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one decoded zap JSON line.
type Entry struct {
	Time    time.Time
	Level   string
	Logger  string
	Message string
	Fields  map[string]any
}

var reservedKeys = map[string]bool{
	"ts": true, "level": true, "logger": true, "msg": true, "caller": true, "stacktrace": true,
}

// Parse decodes a zap JSON line. Lines that are not JSON objects report false.
func Parse(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Entry{}, false
	}

	entry := Entry{Fields: map[string]any{}}
	entry.Level, _ = raw["level"].(string)
	entry.Logger, _ = raw["logger"].(string)
	entry.Message, _ = raw["msg"].(string)
	switch ts := raw["ts"].(type) {
	case string:
		if parsed, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts); err == nil {
			entry.Time = parsed
		} else if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = parsed
		}
	case float64:
		sec := int64(ts)
		entry.Time = time.Unix(sec, int64((ts-float64(sec))*1e9))
	}
	for k, v := range raw {
		if !reservedKeys[k] {
			entry.Fields[k] = v
		}
	}
	return entry, true
}

// Format renders a line for display as "15:04:05 LEVEL message key=value".
// Lines that are not zap JSON are returned unchanged.
func Format(line string) string {
	entry, ok := Parse(line)
	if !ok {
		return line
	}
	var b strings.Builder
	if !entry.Time.IsZero() {
		b.WriteString(entry.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(strings.ToUpper(entry.Level))
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(entry.Fields[k]))
	}
	return b.String()
}

// FormatLines applies Format to every line.
func FormatLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Format(line)
	}
	return out
}

// Level returns the upper-case level of a zap JSON line, or "" for other lines.
func Level(line string) string {
	entry, ok := Parse(line)
	if !ok {
		return ""
	}
	return strings.ToUpper(entry.Level)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t") {
			return strconv.Quote(val)
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
