package version

import (
	"strconv"
	"strings"
)

// IsNumeric reports whether v looks like a dotted release number (1, 1.2, v1.2.3)
func IsNumeric(v string) bool {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return false
	}
	for _, part := range strings.Split(v, ".") {
		if _, err := strconv.Atoi(part); err != nil {
			return false
		}
	}
	return true
}

// core drops the leading v and any pre-release or build suffix (1.2.3-rc1, 1.2.3+sha)
func core(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	return v
}

func components(v string) []int {
	parts := strings.Split(core(v), ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		nums[i] = n
	}
	return nums
}

// Compare compares dotted versions component by component. Missing and
// non-numeric components count as 0. It returns -1, 0 or 1.
func Compare(a, b string) int {
	ca, cb := components(a), components(b)
	n := max(len(ca), len(cb))

	for i := 0; i < n; i++ {
		var x, y int
		if i < len(ca) {
			x = ca[i]
		}
		if i < len(cb) {
			y = cb[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// IsNewer reports whether latest is a newer release than current. A
// development build named after a branch is never up to date.
func IsNewer(current, latest string) bool {
	if !IsNumeric(core(latest)) {
		return false
	}
	if !IsNumeric(core(current)) {
		return true
	}
	return Compare(current, latest) < 0
}
