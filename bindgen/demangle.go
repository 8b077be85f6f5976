package bindgen

import (
	"strconv"
	"strings"
)

// segmentUnescaper reverses the symbol-safe escapes used inside mangled
// path segments. ".." encodes "::".
var segmentUnescaper = strings.NewReplacer(
	"$SP$", "@",
	"$BP$", "*",
	"$RF$", "&",
	"$LT$", "<",
	"$GT$", ">",
	"$LP$", "(",
	"$RP$", ")",
	"$C$", ",",
	"$u20$", " ",
	"$u22$", "\"",
	"$u27$", "'",
	"$u2b$", "+",
	"$u3b$", ";",
	"$u5b$", "[",
	"$u5d$", "]",
	"$u7b$", "{",
	"$u7d$", "}",
	"$u7e$", "~",
	"..", "::",
)

// demangleName turns a mangled _ZN...E symbol into its readable path,
// dropping the trailing disambiguation hash. Anything that does not parse
// as a mangled symbol comes back unchanged.
func demangleName(sym string) string {
	s, ok := strings.CutPrefix(sym, "_ZN")
	if !ok {
		return sym
	}
	var parts []string
	for {
		if s == "" {
			return sym
		}
		if s[0] == 'E' {
			if s != "E" {
				return sym
			}
			break
		}
		digits := 0
		for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
			digits++
		}
		if digits == 0 {
			return sym
		}
		n, err := strconv.Atoi(s[:digits])
		if err != nil || len(s)-digits < n {
			return sym
		}
		parts = append(parts, s[digits:digits+n])
		s = s[digits+n:]
	}
	if len(parts) == 0 {
		return sym
	}
	if len(parts) > 1 && isDisambiguationHash(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		// segments that start with an escape carry a leading underscore
		// so the mangled form begins with a letter
		if strings.HasPrefix(p, "_$") {
			p = p[1:]
		}
		parts[i] = segmentUnescaper.Replace(p)
	}
	return strings.Join(parts, "::")
}

// isDisambiguationHash matches the final h<16 hex digits> segment.
func isDisambiguationHash(s string) bool {
	if len(s) != 17 || s[0] != 'h' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
