package models

// Time-of-day and calendar buckets used by the TIME feature.
const (
	AM       = "am"
	PM       = "pm"
	Work     = "work"
	Vacation = "vacation"
)

// RequestFeatures describes one incoming match request.
type RequestFeatures struct {
	UID            string `json:"uid"`
	Nation         string `json:"nation"`
	ReqID          string `json:"reqid"`
	PID            string `json:"pid"`
	IP             string `json:"ip"`
	UserAgent      string `json:"ua,omitempty"`
	Browser        string `json:"browser"`
	AMPM           string `json:"ampm"`
	Hour           string `json:"hour"`
	WorkOrVacation string `json:"wov"`
}
