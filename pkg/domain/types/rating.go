package types

// Rating is the ordinal scale shared by risk probability and impact
type Rating string

const (
	RatingVeryLow  Rating = "Very_Low"
	RatingLow      Rating = "Low"
	RatingMedium   Rating = "Medium"
	RatingHigh     Rating = "High"
	RatingVeryHigh Rating = "Very_High"
)

// AllRatings returns all ratings in ascending order
func AllRatings() []Rating {
	return []Rating{
		RatingVeryLow,
		RatingLow,
		RatingMedium,
		RatingHigh,
		RatingVeryHigh,
	}
}

// IsValid checks if the rating is one of the five defined values
func (r Rating) IsValid() bool {
	return r.Value() != 0
}

// Value returns the ordinal value of the rating (1..5), or 0 for an invalid rating
func (r Rating) Value() int {
	switch r {
	case RatingVeryLow:
		return 1
	case RatingLow:
		return 2
	case RatingMedium:
		return 3
	case RatingHigh:
		return 4
	case RatingVeryHigh:
		return 5
	default:
		return 0
	}
}

// String returns the string representation of the rating
func (r Rating) String() string {
	return string(r)
}

// ParseRating parses a string into a Rating
func ParseRating(s string) (Rating, error) {
	return parseEnum("rating", s, Rating.IsValid)
}
