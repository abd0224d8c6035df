package cmac

// CipherID identifies the block cipher a MAC key is intended for,
// mirroring the generic cipher layer identifiers.
type CipherID int

// Cipher identifiers known to SetKey. Only CipherAES is supported by the
// accelerator path.
const (
	CipherNone CipherID = iota
	CipherAES
	CipherDES
	CipherTripleDES
	CipherCamellia
)

// BlockSize returns the cipher block size in bytes, or zero for an
// unknown identifier.
func (id CipherID) BlockSize() int {
	switch id {
	case CipherAES, CipherCamellia:
		return 16
	case CipherDES, CipherTripleDES:
		return 8
	default:
		return 0
	}
}

func (id CipherID) String() string {
	switch id {
	case CipherNone:
		return "none"
	case CipherAES:
		return "aes"
	case CipherDES:
		return "des"
	case CipherTripleDES:
		return "3des"
	case CipherCamellia:
		return "camellia"
	default:
		return "unknown"
	}
}
