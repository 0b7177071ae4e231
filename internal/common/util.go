package common

// WipeByteArray zeroes b in place; nil is allowed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
