package cpu

// ALU helpers return the 8-bit result and the value VF receives.

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// add: VF is the carry out of bit 7.
func add(a, b byte) (byte, byte) {
	s := uint16(a) + uint16(b)
	return byte(s), flag(s > 0xFF)
}

// sub computes a-b. VF is 1 when no borrow occurred.
func sub(a, b byte) (byte, byte) {
	return a - b, flag(a >= b)
}

// shr: VF is the bit shifted out of bit 0.
func shr(a byte) (byte, byte) {
	return a >> 1, a & 0x01
}

// shl: VF is the bit shifted out of bit 7.
func shl(a byte) (byte, byte) {
	return a << 1, a >> 7
}

// bcd splits v into hundreds, tens and ones.
func bcd(v byte) [3]byte {
	return [3]byte{v / 100, v / 10 % 10, v % 10}
}
