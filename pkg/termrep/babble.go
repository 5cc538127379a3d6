package termrep

// Bubble-babble encoding of a 32-bit term number, after the scheme in
// draft-huima-01. The consonant table drops j, q and w and swaps x and z
// so the output reads slightly more naturally.

var (
	babbleVowels     = []byte("aeiouy")
	babbleConsonants = []byte("bcdfghklmnprstvzx")
)

func bubbleBabble(k uint32) string {
	d := [5]int{
		0,
		int(k & 0xFF),
		int((k >> 8) & 0xFF),
		int((k >> 16) & 0xFF),
		int((k >> 24) & 0xFF),
	}

	c1 := 1
	c2 := (c1*5 + (d[1]*7 + d[2])) % 36
	c3 := (c2*5 + (d[3]*7 + d[4])) % 36

	t := [5]int{
		(((d[1] >> 6) & 3) + c1) % 6,
		(d[1] >> 2) & 15,
		(d[1] & 3) % 6,
		(d[2] >> 4) & 15,
		d[2] & 15,
	}
	p := [3]int{
		c3 % 6,
		(d[4] >> 2) & 15,
		((d[4] & 3) + c3/6) % 6,
	}

	out := make([]byte, 0, 14)
	out = append(out, babbleVowels[t[0]], babbleConsonants[t[1]], babbleVowels[t[2]], babbleConsonants[t[3]])
	out = append(out, babbleConsonants[t[3]], babbleVowels[t[0]], babbleConsonants[t[1]], babbleVowels[t[2]], babbleConsonants[t[3]])
	out = append(out, babbleConsonants[t[3]], babbleVowels[p[0]], babbleConsonants[p[1]], babbleVowels[p[2]])
	return string(out)
}
