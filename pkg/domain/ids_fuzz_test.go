package domain

import (
	"testing"
	"unicode/utf8"
)

// Parsing sits on every path parameter and request body id, so it must never
// panic and must agree with its own String output.
func FuzzParseProductID(f *testing.F) {
	f.Add("")
	f.Add("3f2c1a9e-8b7d-4c6e-9a5f-0e1d2c3b4a59")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("urn:uuid:3f2c1a9e-8b7d-4c6e-9a5f-0e1d2c3b4a59")
	f.Add("{3f2c1a9e-8b7d-4c6e-9a5f-0e1d2c3b4a59}")
	f.Add(string([]byte{0xc3, 0x28}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseProductID(input)
		if err != nil {
			return
		}
		if !utf8.ValidString(input) {
			t.Fatalf("accepted invalid UTF-8 %q", input)
		}
		if id.IsNil() {
			t.Fatalf("accepted nil uuid from %q", input)
		}
		again, err := ParseProductID(id.String())
		if err != nil || again != id {
			t.Fatalf("round trip of %q failed: %v", input, err)
		}
	})
}

func FuzzParsersAgree(f *testing.F) {
	f.Add("3f2c1a9e-8b7d-4c6e-9a5f-0e1d2c3b4a59")
	f.Add("")
	f.Add("order-42")

	f.Fuzz(func(t *testing.T, input string) {
		_, errTenant := ParseTenantID(input)
		_, errUser := ParseUserID(input)
		_, errProduct := ParseProductID(input)
		_, errOrder := ParseOrderID(input)

		ok := errTenant == nil
		if (errUser == nil) != ok || (errProduct == nil) != ok || (errOrder == nil) != ok {
			t.Fatalf("id parsers disagree on %q", input)
		}
	})
}
