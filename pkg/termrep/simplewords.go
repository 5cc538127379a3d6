package termrep

// simpleWord renders a term number as base-24 letters, decorated with a
// prime-number-driven prefix and postfix so the output vocabulary has
// some morphological texture (shared stems and endings).
func simpleWord(termNumber uint64) string {
	termNumber++
	const alphabetSize = 24

	primes := [8]uint64{2, 3, 5, 7, 11, 13, 17, 19}
	var applies [8]bool
	for i, p := range primes {
		applies[i] = termNumber%p == 0
	}

	// Prime index 4 (11) controls the prefix, 2 (5) and 6 (17) the
	// postfix.
	prefixLen := 2
	if applies[4] {
		prefixLen = 0
	}

	var core []byte
	for n := termNumber; n > 0; n /= alphabetSize {
		core = append(core, byte(n%alphabetSize)+'a')
	}

	word := make([]byte, 0, MaxTermLen)
	if prefixLen > 0 {
		// The prefix is the first letters of the core followed by 'z'.
		for i := 0; i < prefixLen-1; i++ {
			word = append(word, core[i%len(core)])
		}
		word = append(word, 'z')
	}
	word = append(word, core...)

	if applies[2] {
		postfixLen := 2
		if applies[6] {
			postfixLen += 2
		}
		word = append(word, 'y')
		for i := 0; i < postfixLen-1; i++ {
			word = append(word, core[i%len(core)])
		}
	}

	if len(word) > MaxTermLen {
		word = word[:MaxTermLen]
	}
	return string(word)
}
