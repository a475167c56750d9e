package enums

import "fmt"

// ConditionRating grades the physical condition of an asset.
type ConditionRating string

const (
	ConditionRatingExcellent ConditionRating = "excellent"
	ConditionRatingGood      ConditionRating = "good"
	ConditionRatingFair      ConditionRating = "fair"
	ConditionRatingPoor      ConditionRating = "poor"
	ConditionRatingDamaged   ConditionRating = "damaged"
)

var validConditionRatings = []ConditionRating{
	ConditionRatingExcellent,
	ConditionRatingGood,
	ConditionRatingFair,
	ConditionRatingPoor,
	ConditionRatingDamaged,
}

// String implements fmt.Stringer.
func (c ConditionRating) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ConditionRating.
func (c ConditionRating) IsValid() bool {
	for _, candidate := range validConditionRatings {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseConditionRating converts raw input into a ConditionRating.
func ParseConditionRating(value string) (ConditionRating, error) {
	for _, candidate := range validConditionRatings {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid condition rating %q", value)
}
