package blsapi

// request is the BLS public timeseries API payload. Years are sent as
// strings, matching the API's own examples.
type request struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

// response is the standard BLS envelope. Status is "REQUEST_SUCCEEDED"
// on success; Message carries human-readable diagnostics either way.
type response struct {
	Status       string   `json:"status"`
	ResponseTime int64    `json:"responseTime"`
	Message      []string `json:"message"`
	Results      results  `json:"Results"`
}

type results struct {
	Series []series `json:"series"`
}

type series struct {
	SeriesID string      `json:"seriesID"`
	Data     []dataPoint `json:"data"`
}

type dataPoint struct {
	Year       string `json:"year"`
	Period     string `json:"period"` // "M01".."M12" monthly, "M13" annual average
	PeriodName string `json:"periodName"`
	Value      string `json:"value"`
}
