package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// MaxRangeEnd is the largest upper bound a range may have. Ranges are
// expanded before the list is fetched.
const MaxRangeEnd = 10000

// ParseTaskRefs parses task numbers from args.
//
// Each argument is a 1-based number ("3") or an inclusive range ("2-5").
// Arguments may also be comma separated ("1,3,5"). Duplicates are dropped;
// the first occurrence keeps its position.
func ParseTaskRefs(args []string) ([]int, error) {
	var tokens []string
	for _, arg := range args {
		for _, tok := range strings.Split(arg, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}
	if len(tokens) == 0 {
		return nil, ErrTaskRefRequired
	}

	seen := make(map[int]bool)
	var nums []int
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			nums = append(nums, n)
		}
	}

	for _, tok := range tokens {
		// Range: <digits>-<digits>
		if lo, hi, ok := strings.Cut(tok, "-"); ok {
			if !isAllDigits(lo) || !isAllDigits(hi) {
				return nil, fmt.Errorf("invalid task reference: %s", tok)
			}
			from, err1 := strconv.Atoi(lo)
			to, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil || from > to {
				return nil, fmt.Errorf("invalid task reference: %s", tok)
			}
			if to > MaxRangeEnd {
				return nil, fmt.Errorf("task range too large: %s (max %d)", tok, MaxRangeEnd)
			}
			for n := from; n <= to; n++ {
				add(n)
			}
			continue
		}

		if !isAllDigits(tok) {
			return nil, fmt.Errorf("invalid task reference: %s", tok)
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid task reference: %s", tok)
		}
		add(n)
	}
	return nums, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
