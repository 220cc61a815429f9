package model

//
// Exposure notification data model
//

const (
	// TEKKeyLength is the length in bytes of a temporary exposure key.
	TEKKeyLength = 16

	// TEKRollingPeriod is the number of 10-minute intervals for
	// which a temporary exposure key is valid.
	TEKRollingPeriod = 144

	// TEKMaxCount is the maximum number of keys in an upload: one
	// for each day of the infectious window.
	TEKMaxCount = 14

	// AttenuationBuckets is the number of attenuation duration buckets.
	AttenuationBuckets = 3

	// SummaryDateFormat is the layout of summary and exposure info dates.
	SummaryDateFormat = "2006-01-02"
)

// TemporaryExposureKey is a rotating key broadcast by the proximity
// tracing beacon. KeyData is serialized as base64 by encoding/json.
type TemporaryExposureKey struct {
	KeyData            []byte `json:"key_data"`
	RollingStartNumber uint32 `json:"rolling_start_number"`
	RollingPeriod      uint32 `json:"rolling_period"`
}

// ExposureDetectionSummary aggregates the result of one exposure
// detection run performed on the device.
type ExposureDetectionSummary struct {
	Date                  string         `json:"date"`
	MatchedKeyCount       int            `json:"matched_key_count"`
	DaysSinceLastExposure int            `json:"days_since_last_exposure"`
	AttenuationDurations  []int          `json:"attenuation_durations"`
	MaximumRiskScore      int            `json:"maximum_risk_score"`
	ExposureInfo          []ExposureInfo `json:"exposure_info"`
}

// ExposureInfo describes a single exposure inside a summary.
type ExposureInfo struct {
	Date                  string `json:"date"`
	Duration              int    `json:"duration"`
	AttenuationValue      int    `json:"attenuation_value"`
	AttenuationDurations  []int  `json:"attenuation_durations"`
	TransmissionRiskLevel int    `json:"transmission_risk_level"`
	TotalRiskScore        int    `json:"total_risk_score"`
}
