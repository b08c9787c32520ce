package activity

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ParseRating reads a star rating written as an integer in [MinRating, MaxRating].
func ParseRating(s string) (int, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("rating is empty")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("rating %q is not a whole number", raw)
	}
	if v < MinRating || v > MaxRating {
		return 0, fmt.Errorf("rating %d out of range %d..%d", v, MinRating, MaxRating)
	}
	return v, nil
}
