package registration

import "strings"

// EncodeRow renders one CSV line. Every field is quoted and embedded quotes are doubled.
// Newlines are written as-is and break the row.
func EncodeRow(values []string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(v, `"`, `""`))
		b.WriteByte('"')
	}
	return b.String()
}

// EncodeHeader renders the unquoted header line.
func EncodeHeader(cols []string) string {
	return strings.Join(cols, ",")
}

// DecodeRow splits one CSV line, honouring quoted fields and doubled quotes.
func DecodeRow(line string) []string {
	var (
		values   []string
		current  strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			values = append(values, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(values, current.String())
}

// SplitLines splits a CSV document on \n or \r\n, dropping empty lines.
func SplitLines(content string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
