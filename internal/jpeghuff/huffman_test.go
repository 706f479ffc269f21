package jpeghuff

import "testing"

// buildSimpleTable constructs a two-symbol canonical table: symbol 0 at
// code "0" (length 1), symbol 1 at code "10" (length 2). Code "11..." is
// deliberately left unassigned to exercise the invalid-code path.
func buildSimpleTable(t *testing.T) *Table {
	t.Helper()
	var counts [16]int
	counts[0] = 1 // one code of length 1
	counts[1] = 1 // one code of length 2
	tab, err := BuildTable(counts, []byte{0, 1})
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}
	return tab
}

func TestBuildTable_LengthMismatchRejected(t *testing.T) {
	var counts [16]int
	counts[0] = 2
	if _, err := BuildTable(counts, []byte{0}); err == nil {
		t.Fatalf("BuildTable with mismatched counts/values accepted, want ErrBadTable")
	}
}

// TestBuildTable_OversubscribedRejected builds a DHT definition that
// claims two length-1 codes ("0" and "1", leaving no room for the
// length-2 code that follows): the Kraft inequality is violated even
// though counts and values agree in length, and BuildTable must reject
// it instead of silently wrapping codes.
func TestBuildTable_OversubscribedRejected(t *testing.T) {
	var counts [16]int
	counts[0] = 2 // two codes of length 1: "0" and "1" exhaust all space
	counts[1] = 1 // a length-2 code has no space left to fit in
	if _, err := BuildTable(counts, []byte{0, 1, 2}); err == nil {
		t.Fatalf("BuildTable with over-subscribed lengths accepted, want ErrBadTable")
	}
}

// TestBuildTable_CompleteTableAccepted is the Kraft-exact counterpart:
// a complete single-length code set (two codes of length 1, using
// exactly all the space) must still be accepted.
func TestBuildTable_CompleteTableAccepted(t *testing.T) {
	var counts [16]int
	counts[0] = 2
	if _, err := BuildTable(counts, []byte{0, 1}); err != nil {
		t.Fatalf("BuildTable with exactly-complete lengths rejected: %v", err)
	}
}

// TestTable_Decode_FullProbe walks every possible 16-bit lookahead value
// that could occur for each assigned code's prefix and confirms the
// decoded symbol and length match the canonical assignment, and that
// unassigned prefixes correctly fail.
func TestTable_Decode_FullProbe(t *testing.T) {
	tab := buildSimpleTable(t)

	// Any lookahead with top bit 0 must decode to symbol 0, length 1,
	// regardless of the following 15 bits.
	for peek := uint32(0x0000); peek < 0x8000; peek++ {
		res, ok := tab.Decode(peek)
		if !ok || res.Symbol != 0 || res.Length != 1 {
			t.Fatalf("Decode(%#04x) = %+v, %v; want symbol 0 length 1", peek, res, ok)
		}
	}

	// Top two bits "10" must decode to symbol 1, length 2.
	for peek := uint32(0x8000); peek < 0xc000; peek++ {
		res, ok := tab.Decode(peek)
		if !ok || res.Symbol != 1 || res.Length != 2 {
			t.Fatalf("Decode(%#04x) = %+v, %v; want symbol 1 length 2", peek, res, ok)
		}
	}

	// Top two bits "11" form no assigned code.
	for peek := uint32(0xc000); peek <= 0xffff; peek++ {
		if _, ok := tab.Decode(peek); ok {
			t.Fatalf("Decode(%#04x) = ok, want failure (unassigned code)", peek)
		}
	}
}

// TestTable_Sextent_MatchesDecodeForACSymbols builds a table of (run,
// size) byte symbols as AC tables use, and checks SextentDecode's
// combined (value, run, totalBits) agrees with driving Decode and
// extending the raw bits by hand.
func TestTable_Sextent_MatchesDecodeForACSymbols(t *testing.T) {
	var counts [16]int
	counts[0] = 1 // one 1-bit code
	counts[1] = 1 // one 2-bit code
	// symbol byte = run<<4 | size. Use size=1 for both so the extra bit
	// fits comfortably inside RootBits.
	values := []byte{0x01, 0x11} // run0/size1, run1/size1
	tab, err := BuildTableWithSextent(counts, values)
	if err != nil {
		t.Fatalf("BuildTableWithSextent: %v", err)
	}

	// Symbol 0 (run0/size1) sits at code "0" (length 1); one magnitude
	// bit follows. peek16 = 0b0 1 000000000000000 -> magnitude bit 1.
	peek := uint32(0x4000) // top bit 0 (code), next bit 1 (magnitude)
	value, run, bits, ok := tab.SextentDecode(peek)
	if !ok {
		t.Fatalf("SextentDecode(%#04x) not ok", peek)
	}
	if run != 0 || bits != 2 {
		t.Fatalf("SextentDecode(%#04x) = run %d bits %d, want run 0 bits 2", peek, run, bits)
	}
	if value != 1 {
		t.Fatalf("SextentDecode(%#04x) value = %d, want 1 (magnitude bit 1 extends to 1)", peek, value)
	}

	// Same code, magnitude bit 0 extends to -1.
	peek = 0x0000
	value, run, bits, ok = tab.SextentDecode(peek)
	if !ok || run != 0 || bits != 2 || value != -1 {
		t.Fatalf("SextentDecode(%#04x) = value %d run %d bits %d ok %v, want -1 0 2 true", peek, value, run, bits, ok)
	}
}
