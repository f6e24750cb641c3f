package process

import "strings"

// CleanLine strips ANSI escape sequences and surrounding whitespace.
func CleanLine(s string) string {
	return strings.TrimSpace(StripANSI(s))
}

// StripANSI removes ANSI escape sequences in a single pass. A hand-written
// scanner is used instead of a regexp so malformed sequences cannot trigger
// pathological backtracking.
func StripANSI(s string) string {
	if strings.IndexByte(s, '\x1b') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '\x1b' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if i+1 >= len(s) {
			// Lone trailing ESC.
			i++
			continue
		}
		switch s[i+1] {
		case '[':
			// CSI: parameters and intermediates, then a final byte in 0x40-0x7e.
			j := i + 2
			for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
				j++
			}
			i = j + 1
		case ']':
			// OSC: terminated by BEL or ST (ESC \).
			if end := strings.IndexByte(s[i:], '\x07'); end >= 0 {
				i += end + 1
			} else if end := strings.Index(s[i:], "\x1b\\"); end >= 0 {
				i += end + 2
			} else {
				i = len(s)
			}
		default:
			i += 2
		}
	}
	return b.String()
}
