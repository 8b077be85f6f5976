package bindgen

import "testing"

func TestDemangleName(t *testing.T) {
	tests := []struct {
		sym  string
		want string
	}{
		{"_ZN3foo3barE", "foo::bar"},
		{"_ZN3foo3bar17h05af221e174051e9E", "foo::bar"},
		{
			"_ZN4core3fmt3num52_$LT$impl$u20$core..fmt..Debug$u20$for$u20$usize$GT$3fmt17h1c27955d8de3ff17E",
			"core::fmt::num::<impl core::fmt::Debug for usize>::fmt",
		},
		{"_ZN4test11static_initE", "test::static_init"},
		// a single-segment path keeps its non-hash segment
		{"_ZN17h0123456789abcdefE", "h0123456789abcdef"},
		// anything that does not parse comes back unchanged
		{"memcpy", "memcpy"},
		{"_ZN3foo", "_ZN3foo"},
		{"_ZN99fooE", "_ZN99fooE"},
		{"_ZNfooE", "_ZNfooE"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := demangleName(tt.sym); got != tt.want {
			t.Errorf("demangleName(%q) = %q, want %q", tt.sym, got, tt.want)
		}
	}
}
