package types

// RiskLevel is the discrete bucket derived from a risk score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelCritical RiskLevel = "Critical"
)

// AllRiskLevels returns all risk levels from lowest to highest
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{
		RiskLevelLow,
		RiskLevelMedium,
		RiskLevelHigh,
		RiskLevelCritical,
	}
}

// IsValid checks if the risk level is valid
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow,
		RiskLevelMedium,
		RiskLevelHigh,
		RiskLevelCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk level
func (l RiskLevel) String() string {
	return string(l)
}

// ParseRiskLevel parses a string into a RiskLevel
func ParseRiskLevel(s string) (RiskLevel, error) {
	return parseEnum("risk level", s, RiskLevel.IsValid)
}

// RiskCategory classifies the source of a risk
type RiskCategory string

const (
	RiskCategoryTechnical   RiskCategory = "Technical"
	RiskCategoryFinancial   RiskCategory = "Financial"
	RiskCategoryResource    RiskCategory = "Resource"
	RiskCategorySchedule    RiskCategory = "Schedule"
	RiskCategoryExternal    RiskCategory = "External"
	RiskCategoryOperational RiskCategory = "Operational"
)

// AllRiskCategories returns all valid risk categories
func AllRiskCategories() []RiskCategory {
	return []RiskCategory{
		RiskCategoryTechnical,
		RiskCategoryFinancial,
		RiskCategoryResource,
		RiskCategorySchedule,
		RiskCategoryExternal,
		RiskCategoryOperational,
	}
}

// IsValid checks if the risk category is valid
func (c RiskCategory) IsValid() bool {
	switch c {
	case RiskCategoryTechnical,
		RiskCategoryFinancial,
		RiskCategoryResource,
		RiskCategorySchedule,
		RiskCategoryExternal,
		RiskCategoryOperational:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk category
func (c RiskCategory) String() string {
	return string(c)
}

// ParseRiskCategory parses a string into a RiskCategory
func ParseRiskCategory(s string) (RiskCategory, error) {
	return parseEnum("risk category", s, RiskCategory.IsValid)
}

// RiskStatus represents the lifecycle state of a risk
type RiskStatus string

const (
	RiskStatusIdentified RiskStatus = "Identified"
	RiskStatusAssessed   RiskStatus = "Assessed"
	RiskStatusMitigated  RiskStatus = "Mitigated"
	RiskStatusAccepted   RiskStatus = "Accepted"
	RiskStatusOccurred   RiskStatus = "Occurred"
)

// AllRiskStatuses returns all valid risk statuses
func AllRiskStatuses() []RiskStatus {
	return []RiskStatus{
		RiskStatusIdentified,
		RiskStatusAssessed,
		RiskStatusMitigated,
		RiskStatusAccepted,
		RiskStatusOccurred,
	}
}

// IsValid checks if the risk status is valid
func (s RiskStatus) IsValid() bool {
	switch s {
	case RiskStatusIdentified,
		RiskStatusAssessed,
		RiskStatusMitigated,
		RiskStatusAccepted,
		RiskStatusOccurred:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as RiskStatusIdentified.
func (s RiskStatus) Normalize() RiskStatus {
	if s == "" {
		return RiskStatusIdentified
	}
	return s
}

// String returns the string representation of the risk status
func (s RiskStatus) String() string {
	return string(s)
}

// ParseRiskStatus parses a string into a RiskStatus
func ParseRiskStatus(s string) (RiskStatus, error) {
	return parseEnum("risk status", s, RiskStatus.IsValid)
}
