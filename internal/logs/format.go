package logs

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// hiddenKeys are fields already shown in the line prefix or not useful on a
// terminal.
var hiddenKeys = map[string]struct{}{
	"ts": {}, "level": {}, "msg": {}, "source": {}, "session_id": {},
}

// Format renders one JSON log record as "15:04:05 LEVEL message key=value".
// Lines that are not JSON objects are returned unchanged.
func Format(line string) string {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return line
	}

	var b strings.Builder
	if ts, ok := record["ts"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			ts = parsed.Local().Format(time.TimeOnly)
		}
		b.WriteString(ts)
		b.WriteByte(' ')
	}
	level, _ := record["level"].(string)
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(level))
	if msg, ok := record["msg"].(string); ok {
		b.WriteString(msg)
	}

	keys := make([]string, 0, len(record))
	for k := range record {
		if _, hidden := hiddenKeys[k]; !hidden {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, record[k])
	}
	return b.String()
}
