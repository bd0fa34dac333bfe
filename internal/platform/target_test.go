package platform

import (
	"errors"
	"strings"
	"testing"

	"markc/internal/markup"
)

func TestEvalContracts(t *testing.T) {
	target := Target{Contracts: map[string]int{"UniversalApiContract": 7}}
	cases := []struct {
		uri  string
		want bool
	}{
		{"using:App?IsApiContractPresent(Windows.Foundation.UniversalApiContract,5)", true},
		{"using:App?IsApiContractPresent(Windows.Foundation.UniversalApiContract,8)", false},
		{"using:App?IsApiContractNotPresent(Windows.Foundation.UniversalApiContract,8)", true},
		{"using:App?IsApiContractPresent(Other,1)", false},
		{"using:App?IsTypePresent(Windows.UI.Xaml.Controls.TwoPaneView)", false},
		{"using:App?IsTypeNotPresent(Windows.UI.Xaml.Controls.TwoPaneView)", true},
		{"using:App?IsApiContractPresent(UniversalApiContract,5);IsTypePresent(X)", false},
		{"using:App", true},
	}
	for _, tc := range cases {
		if got := target.Enabled(tc.uri); got != tc.want {
			t.Fatalf("Enabled(%q) = %v, want %v", tc.uri, got, tc.want)
		}
	}
}

func TestUnknownConditionIsAnError(t *testing.T) {
	uri := "using:App?IsWeekend()"
	_, clauses := markup.SplitConditional(uri)
	if _, err := Windows().Eval(clauses[0]); !errors.Is(err, ErrUnknownCondition) {
		t.Fatalf("err = %v", err)
	}
	ce := CheckConditional(uri)
	if ce == nil || uri[ce.Offset:ce.Offset+ce.Len] != "IsWeekend()" {
		t.Fatalf("CheckConditional = %v", ce)
	}
}

func TestCheckConditional(t *testing.T) {
	cases := []struct {
		uri  string
		bad  string // text the error must point at; "" when valid
		want string
	}{
		{"using:App", "", ""},
		{"using:App?IsApiContractPresent(Windows.Foundation.UniversalApiContract,5)", "", ""},
		{"using:App?IsTypePresent(A); IsTypeNotPresent(B)", "", ""},
		{"using:App?", "?", "no conditions"},
		{"using:App?IsTypePresent(A);;IsTypePresent(B)", "", "empty condition"},
		{"using:App?IsTypePresent(A);", "", "empty condition"},
		{"using:App?IsTypePresent", "IsTypePresent", "Name(arguments)"},
		{"using:App?IsTypePresent(A,B)", "IsTypePresent(A,B)", "one type name"},
		{"using:App?IsApiContractPresent()", "IsApiContractPresent()", "optional version"},
		{"using:App?IsApiContractPresent(C,x)", "IsApiContractPresent(C,x)", "not a positive integer"},
		{"using:App?IsApiContractPresent(C,)", "IsApiContractPresent(C,)", "empty argument"},
		{"using:App?IsTypePresent((A))", "IsTypePresent((A))", "unbalanced"},
	}
	for _, tc := range cases {
		ce := CheckConditional(tc.uri)
		if tc.want == "" {
			if ce != nil {
				t.Fatalf("%q: unexpected error %v", tc.uri, ce)
			}
			continue
		}
		if ce == nil || !strings.Contains(ce.Reason, tc.want) {
			t.Fatalf("%q: got %v, want %q", tc.uri, ce, tc.want)
		}
		if tc.bad != "" && tc.uri[ce.Offset:ce.Offset+ce.Len] != tc.bad {
			t.Fatalf("%q: error points at %q", tc.uri, tc.uri[ce.Offset:ce.Offset+ce.Len])
		}
	}
}

func TestDisabledClausesKeepOffsets(t *testing.T) {
	uri := "using:App?IsTypePresent(A);IsTypePresent(B)"
	target := Target{Types: map[string]bool{"A": true}}
	got := target.DisabledClauses(uri)
	if len(got) != 1 || got[0].Text != "IsTypePresent(B)" {
		t.Fatalf("clauses = %+v", got)
	}
	if uri[got[0].Offset:got[0].Offset+len(got[0].Text)] != got[0].Text {
		t.Fatalf("offset %d does not point at the clause", got[0].Offset)
	}
}
