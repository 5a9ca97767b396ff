package knowledge

import (
	"bufio"
	"bytes"
	"strings"
)

// FlattenTables rewrites Markdown table rows as standalone entries, one row
// per entry with cells joined by spaces. Separator rows are dropped. All
// other lines pass through unchanged. Input without tables is returned as is.
func FlattenTables(in []byte) []byte {
	if !bytes.Contains(in, []byte("|")) {
		return in
	}

	var b strings.Builder
	sc := bufio.NewScanner(bytes.NewReader(in))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	sawTable := false
	inTable := false
	for sc.Scan() {
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") || len(line) < 2 {
			if inTable && line != "" {
				b.WriteByte('\n')
			}
			inTable = false
			b.WriteString(raw)
			b.WriteByte('\n')
			continue
		}

		cells := strings.Split(strings.Trim(line, "|"), "|")
		kept := make([]string, 0, len(cells))
		separator := true
		for _, c := range cells {
			c = strings.TrimSpace(c)
			if strings.Trim(c, ":- ") != "" {
				separator = false
			}
			if c != "" {
				kept = append(kept, c)
			}
		}
		if separator || len(kept) == 0 {
			continue
		}
		if !inTable {
			b.WriteByte('\n')
		}
		sawTable = true
		inTable = true
		b.WriteString(strings.Join(kept, " "))
		b.WriteString("\n\n")
	}
	if sc.Err() != nil || !sawTable {
		return in
	}
	return []byte(strings.TrimRight(b.String(), "\n") + "\n")
}
