package index

import "strings"

// CompareVersions orders two package version strings: digit runs compare
// numerically, everything else byte-wise, with tilde sorting before the
// empty string (so "1.0~rc1" precedes "1.0"). Returns <0, 0 or >0.
func CompareVersions(a, b string) int {
	for a != "" || b != "" {
		// Leading non-digit fragments.
		af, a2 := splitFragment(a, false)
		bf, b2 := splitFragment(b, false)
		if c := compareAlpha(af, bf); c != 0 {
			return c
		}

		// Leading digit fragments.
		an, a3 := splitFragment(a2, true)
		bn, b3 := splitFragment(b2, true)
		if c := compareNumeric(an, bn); c != 0 {
			return c
		}

		a, b = a3, b3
	}
	return 0
}

func splitFragment(s string, digits bool) (fragment, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) == digits {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// compareAlpha orders non-digit fragments byte-wise, except that '~'
// sorts before anything, including the end of the fragment.
func compareAlpha(a, b string) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		ca, cb := byte(0), byte(0)
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		if ca == cb {
			continue
		}
		if ca == '~' {
			return -1
		}
		if cb == '~' {
			return 1
		}
		if ca == 0 {
			return -1
		}
		if cb == 0 {
			return 1
		}
		if ca < cb {
			return -1
		}
		return 1
	}
	return 0
}

func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
