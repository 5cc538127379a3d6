// Package markov trains variable-order letter-transition models from a
// vocabulary file and samples unique synthetic word forms from them.
//
// Notation, used throughout:
//
//	A - the size of the output alphabet, possibly extended by an
//	    end-of-word symbol EOW printed as '$'
//	E - the context alphabet: the letters extended by a start-of-word
//	    symbol SOW, printed as '^', always at digit zero
//
// The order-k matrix has E^k rows of A columns, rows indexed by reading a
// k-symbol context as a base-E number. After training, each row holds
// cumulative probabilities.
package markov

const (
	// MaxOrder is the highest supported model order.
	MaxOrder = 7
	// MaxTermLen caps generated word lengths.
	MaxTermLen = 15
	// NumRankBuckets partitions ranks 1..10^9 logarithmically.
	NumRankBuckets = 9

	// EOW is the printable end-of-word symbol.
	EOW = '$'
	// SOW is the printable start-of-word symbol.
	SOW = '^'

	charNotInAlphabet = -1
)

// alphabet holds the lookup tables between printable characters and
// matrix row/column indices for the lower-case ASCII alphabet.
type alphabet struct {
	A int // columns: output letters (plus EOW when enabled)
	E int // rows per context symbol: SOW plus the letters

	colMap [256]int16 // character -> column index
	rowMap [256]int16 // character -> context row digit (SOW digit is 0)
	revCol []byte     // column index -> printable character
	revRow []byte     // row digit -> printable character
}

// newAlphabet builds the a-z alphabet tables. With useEOW the end symbol
// becomes the last output column and A == E; without it E == A + 1.
func newAlphabet(useEOW bool) alphabet {
	var al alphabet
	for i := range al.colMap {
		al.colMap[i] = charNotInAlphabet
		al.rowMap[i] = charNotInAlphabet
	}

	al.rowMap[0] = 0 // the SOW digit: context bytes are zero before the word starts
	al.revRow = append(al.revRow, SOW)

	c, r := int16(0), int16(1)
	for ch := byte('a'); ch <= 'z'; ch++ {
		al.revCol = append(al.revCol, ch)
		al.revRow = append(al.revRow, ch)
		al.colMap[ch] = c
		al.rowMap[ch] = r
		c++
		r++
	}

	if useEOW {
		al.revCol = append(al.revCol, EOW)
		al.colMap[EOW] = c
		c++
	}

	al.A = int(c)
	al.E = int(r)
	return al
}
