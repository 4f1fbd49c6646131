package normalize

import (
	"net/http"

	"investor_intel/pkg/api"
	"investor_intel/pkg/core/currency"
)

// maxAmounts bounds one request.
const maxAmounts = 10000

type Request struct {
	Amounts []string `json:"amounts"`
}

type Result struct {
	Raw string   `json:"raw"`
	USD *float64 `json:"usd"`
}

type Response struct {
	Results []Result `json:"results"`
}

type RatesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
	// Currencies lists the recognized prefixes in match order.
	Currencies []Currency `json:"currencies"`
}

type Currency struct {
	Symbol string  `json:"symbol"`
	Code   string  `json:"code"`
	Rate   float64 `json:"rate"`
}

// HandleNormalize converts raw amount strings to USD. Unparseable amounts
// come back with a null usd.
func HandleNormalize(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}

	var req Request
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Amounts) > maxAmounts {
		api.WriteError(w, http.StatusRequestEntityTooLarge, "too many amounts")
		return
	}

	resp := Response{Results: make([]Result, len(req.Amounts))}
	for i, raw := range req.Amounts {
		resp.Results[i] = Result{Raw: raw, USD: currency.NormalizeAmount(raw)}
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// HandleRates returns the static FX table keyed by currency symbol, plus
// the same table with ISO codes.
func HandleRates(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "GET") || !api.AllowMethod(w, r, http.MethodGet) {
		return
	}
	prefixes := currency.Prefixes()
	resp := RatesResponse{Base: "USD", Rates: currency.Rates(), Currencies: make([]Currency, len(prefixes))}
	for i, p := range prefixes {
		resp.Currencies[i] = Currency{Symbol: p.Symbol, Code: p.Code, Rate: p.Rate.InexactFloat64()}
	}
	api.WriteJSON(w, http.StatusOK, resp)
}
