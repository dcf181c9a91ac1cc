package symbols

import (
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "bare ticker",
			input: "Buy 10 shares of AAPL",
			want:  []string{"AAPL", "BUY"},
		},
		{
			name:  "lowercase ticker resolves",
			input: "buy 10 shares of nvda",
			want:  []string{"BUY", "NVDA"},
		},
		{
			name:  "company name maps to ticker",
			input: "what is apple trading at",
			want:  []string{"AAPL", "APPLE"},
		},
		{
			name:  "company name without ticker-shaped token",
			input: "Buy 10 shares of Apple",
			want:  []string{"AAPL", "APPLE", "BUY"},
		},
		{
			name:  "THE never becomes a symbol",
			input: "What is the price of THE stock",
			want:  []string{"STOCK"},
		},
		{
			name:  "lowercase dollar prefix",
			input: "$tsla",
			want:  []string{"TSLA"},
		},
		{
			name:  "stoplist words excluded",
			input: "THE PRICE OF THAT IS WHAT I WANT",
			want:  []string{"WANT"},
		},
		{
			name:  "multi-word company name",
			input: "bank of america",
			want:  []string{"BAC", "BANK"},
		},
		{
			name:  "company and ticker deduplicate",
			input: "Apple AAPL $AAPL",
			want:  []string{"AAPL", "APPLE"},
		},
		{
			name:  "mixed request",
			input: "compare msft with nvidia",
			want:  []string{"MSFT", "NVDA", "WITH"},
		},
		{
			name:  "six letter token too long",
			input: "GOOGLX is not a ticker",
			want:  []string{"NOT"},
		},
		{
			name:  "all stoplist",
			input: "what should i do",
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveDeterministicOrder(t *testing.T) {
	input := "tesla microsoft apple nvidia amazon"
	first := Resolve(input)
	for i := 0; i < 10; i++ {
		if got := Resolve(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("ordering unstable: %v vs %v", got, first)
		}
	}
	want := []string{"AAPL", "AMZN", "APPLE", "MSFT", "NVDA", "TESLA", "TSLA"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("Resolve = %v, want %v", first, want)
	}
}

func TestCompanyMapping(t *testing.T) {
	mapping := CompanyMapping([]string{"AAPL", "META"})
	if mapping["APPLE"] != "AAPL" {
		t.Errorf(`mapping["APPLE"] = %q, want AAPL`, mapping["APPLE"])
	}
	// Both aliases of the symbol come back.
	if mapping["FACEBOOK"] != "META" || mapping["META"] != "META" {
		t.Errorf("META aliases missing: %v", mapping)
	}
	if _, ok := mapping["TESLA"]; ok {
		t.Error("TESLA present despite TSLA not resolved")
	}
}

func TestCompanyMappingEmpty(t *testing.T) {
	if m := CompanyMapping(nil); len(m) != 0 {
		t.Errorf("CompanyMapping(nil) = %v, want empty", m)
	}
}
