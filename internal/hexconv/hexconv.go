package hexconv

// Invalid marks a byte that is not a hex digit in Halfbyte.
const Invalid = 0xFF

// Halfbyte maps an ASCII hex digit (of any case) onto its value, and anything else
// onto Invalid.
var Halfbyte = func() (table [256]byte) {
	for i := range table {
		table[i] = Invalid
	}

	for c := byte('0'); c <= '9'; c++ {
		table[c] = c - '0'
	}

	for c := byte('a'); c <= 'f'; c++ {
		table[c] = c - 'a' + 10
		table[c-'a'+'A'] = c - 'a' + 10
	}

	return table
}()

// Upper are the digits used when encoding, chunk sizes are written in upper case.
const Upper = "0123456789ABCDEF"
