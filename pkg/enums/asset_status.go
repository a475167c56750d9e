package enums

import "fmt"

// AssetStatus tracks the operational state of a physical asset.
type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "available"
	AssetStatusInTransit   AssetStatus = "in_transit"
	AssetStatusInUse       AssetStatus = "in_use"
	AssetStatusMaintenance AssetStatus = "maintenance"
	AssetStatusRetired     AssetStatus = "retired"
)

var validAssetStatuses = []AssetStatus{
	AssetStatusAvailable,
	AssetStatusInTransit,
	AssetStatusInUse,
	AssetStatusMaintenance,
	AssetStatusRetired,
}

// String implements fmt.Stringer.
func (a AssetStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssetStatus.
func (a AssetStatus) IsValid() bool {
	for _, candidate := range validAssetStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsOperational reports whether the status is one an asset may settle into
// after the receiving side signs for it.
func (a AssetStatus) IsOperational() bool {
	return a == AssetStatusAvailable || a == AssetStatusInUse
}

// ParseAssetStatus converts raw input into an AssetStatus.
func ParseAssetStatus(value string) (AssetStatus, error) {
	for _, candidate := range validAssetStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset status %q", value)
}
