package wire

// insert16 writes value into the masked field of word and preserves every
// other bit. value is taken pre-shift; bits that fall outside the mask are
// dropped, which is what keeps packed neighbours safe from each other.
func insert16(word, mask uint16, shift uint, value uint16) uint16 {
	return word&^mask | value<<shift&mask
}

// insert8 is insert16 for single-octet headers.
func insert8(octet, mask uint8, shift uint, value uint8) uint8 {
	return octet&^mask | value<<shift&mask
}
