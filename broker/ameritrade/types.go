package ameritrade

// Wire shapes for the subset of the TD Ameritrade API this client touches.
// See https://developer.tdameritrade.com/content/place-order-samples for the
// order payload format.

type orderPayload struct {
	OrderType          string     `json:"orderType"`
	Session            string     `json:"session"`
	Duration           string     `json:"duration"`
	OrderStrategyType  string     `json:"orderStrategyType"`
	OrderLegCollection []orderLeg `json:"orderLegCollection"`
}

type orderLeg struct {
	Instruction string        `json:"instruction"`
	Quantity    float64       `json:"quantity"`
	Instrument  orderInstrmnt `json:"instrument"`
}

type orderInstrmnt struct {
	Symbol    string `json:"symbol"`
	AssetType string `json:"assetType"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type orderStatus struct {
	Tag                     string          `json:"tag"`
	CloseTime               string          `json:"closeTime"`
	OrderLegCollection      []orderLeg      `json:"orderLegCollection"`
	OrderActivityCollection []orderActivity `json:"orderActivityCollection"`
}

type orderActivity struct {
	ActivityType  string         `json:"activityType"`
	ExecutionLegs []executionLeg `json:"executionLegs"`
}

type executionLeg struct {
	Price float64 `json:"price"`
}

type quoteResult map[string]struct {
	LastPrice float64 `json:"lastPrice"`
}
