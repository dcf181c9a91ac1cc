// Package symbols extracts candidate stock symbols from free-form user
// input: bare ticker-shaped tokens, $-prefixed tickers, and well-known company
// names, filtered through a stoplist of common English words.
package symbols

import (
	"regexp"
	"sort"
	"strings"
)

// Both patterns run against the uppercased input so lowercase-typed tickers
// still resolve. Short English words picked up along the way are absorbed by
// the stoplist; anything the stoplist misses is an accepted false positive.
var (
	bareTokenRe = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	dollarRe    = regexp.MustCompile(`\$([A-Z]{1,5})\b`)
)

// companyToSymbol maps well-known company names (uppercased) to tickers.
// Matching is by substring against the uppercased input, so multi-word
// names like "BANK OF AMERICA" work without tokenization.
var companyToSymbol = map[string]string{
	"APPLE":                  "AAPL",
	"MICROSOFT":              "MSFT",
	"AMAZON":                 "AMZN",
	"GOOGLE":                 "GOOGL",
	"ALPHABET":               "GOOGL",
	"TESLA":                  "TSLA",
	"NVIDIA":                 "NVDA",
	"META":                   "META",
	"FACEBOOK":               "META",
	"NETFLIX":                "NFLX",
	"ANALOG DEVICES":         "ADI",
	"INTEL":                  "INTC",
	"AMD":                    "AMD",
	"ADVANCED MICRO DEVICES": "AMD",
	"COCA COLA":              "KO",
	"COCA-COLA":              "KO",
	"DISNEY":                 "DIS",
	"WALT DISNEY":            "DIS",
	"JPMORGAN":               "JPM",
	"JP MORGAN":              "JPM",
	"BANK OF AMERICA":        "BAC",
	"GOLDMAN SACHS":          "GS",
	"JOHNSON & JOHNSON":      "JNJ",
	"JOHNSON AND JOHNSON":    "JNJ",
	"VISA":                   "V",
	"MASTERCARD":             "MA",
	"WALMART":                "WMT",
	"TARGET":                 "TGT",
	"COSTCO":                 "COST",
	"HOME DEPOT":             "HD",
	"NIKE":                   "NKE",
	"MCDONALDS":              "MCD",
	"MCDONALD'S":             "MCD",
	"STARBUCKS":              "SBUX",
	"PFIZER":                 "PFE",
	"MODERNA":                "MRNA",
	"EXXON":                  "XOM",
	"EXXONMOBIL":             "XOM",
	"EXXON MOBIL":            "XOM",
	"CHEVRON":                "CVX",
	"BOEING":                 "BA",
	"AMERICAN AIRLINES":      "AAL",
	"DELTA":                  "DAL",
	"DELTA AIR LINES":        "DAL",
}

// stoplist holds short uppercase English words that the bare-token pattern
// would otherwise misread as tickers. PRICE is included because "price"
// appears in nearly every quote request.
var stoplist = map[string]struct{}{
	"I": {}, "A": {}, "AN": {}, "THE": {}, "AND": {}, "OR": {}, "FOR": {},
	"TO": {}, "IN": {}, "OF": {}, "AT": {}, "BY": {}, "AS": {}, "IS": {},
	"ARE": {}, "AM": {}, "BE": {}, "BEEN": {}, "BEING": {}, "WAS": {},
	"WERE": {}, "HAS": {}, "HAVE": {}, "HAD": {}, "DO": {}, "DOES": {},
	"DID": {}, "CAN": {}, "COULD": {}, "WILL": {}, "WOULD": {}, "SHALL": {},
	"SHOULD": {}, "MAY": {}, "MIGHT": {}, "MUST": {}, "THAT": {},
	"WHICH": {}, "WHO": {}, "WHOM": {}, "WHOSE": {}, "WHAT": {}, "PRICE": {},
}

// Resolve extracts the deduplicated, stoplist-filtered set of candidate
// symbols from user input. The result is sorted for deterministic prompts
// and logs.
func Resolve(input string) []string {
	upper := strings.ToUpper(input)

	seen := make(map[string]struct{})
	for _, tok := range bareTokenRe.FindAllString(upper, -1) {
		seen[tok] = struct{}{}
	}
	for _, m := range dollarRe.FindAllStringSubmatch(upper, -1) {
		seen[m[1]] = struct{}{}
	}
	for company, symbol := range companyToSymbol {
		if strings.Contains(upper, company) {
			seen[symbol] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(seen))
	for s := range seen {
		if _, stopped := stoplist[s]; stopped {
			continue
		}
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// CompanyMapping returns the subset of the company-name table whose symbols
// appear in the resolved set. It is embedded in the interpreter prompt so
// the model knows which names map to which tickers.
func CompanyMapping(symbols []string) map[string]string {
	resolved := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		resolved[s] = struct{}{}
	}
	mapping := make(map[string]string)
	for company, symbol := range companyToSymbol {
		if _, ok := resolved[symbol]; ok {
			mapping[company] = symbol
		}
	}
	return mapping
}
