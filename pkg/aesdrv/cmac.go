package aesdrv

import (
	"crypto/subtle"

	"github.com/ryankurte/efm32-mbedtls/pkg/cryptodrv"
	"github.com/ryankurte/efm32-mbedtls/pkg/ecode"
)

const blockSize = cryptodrv.BlockSize

// CMAC computes or verifies an AES-CMAC tag over the first dataLengthBits
// bits of data, per NIST SP 800-38B. Lengths are given in bits: the data
// length must be a multiple of 8, the tag length may be any value from 1
// to 128. Keys of 16 or 32 bytes are accepted.
//
// With encrypt true the tag is generated into tag, filling the leading
// (tagLengthBits+7)/8 bytes and zeroing any unused trailing bits of the
// last byte. With encrypt false the leading tagLengthBits bits of tag are
// compared against the computed value in constant time;
// ecode.ErrAESDRVAuthenticationFailed reports a mismatch.
func (c *Context) CMAC(
	key []byte,
	data []byte,
	dataLengthBits int,
	tag []byte,
	tagLengthBits int,
	encrypt bool,
) error {
	switch {
	case dataLengthBits < 0 || dataLengthBits&0x7 != 0:
		return ecode.ErrAESDRVInvalidParam
	case dataLengthBits/8 > len(data):
		return ecode.ErrAESDRVInvalidParam
	case tagLengthBits < 1 || tagLengthBits > 128:
		return ecode.ErrAESDRVInvalidParam
	case len(tag) < (tagLengthBits+7)/8:
		return ecode.ErrAESDRVInvalidParam
	case len(key) != 16 && len(key) != 32:
		return ecode.ErrAESDRVInvalidParam
	}

	sess, err := c.drv.Acquire()
	if err != nil {
		return err
	}
	defer sess.Release()

	if err := sess.LoadKey(key); err != nil {
		return err
	}

	var mac [blockSize]byte
	if err := cmacCompute(sess, data[:dataLengthBits/8], &mac); err != nil {
		return err
	}

	if encrypt {
		writeTag(tag, &mac, tagLengthBits)

		return nil
	}

	if !tagEqual(tag, &mac, tagLengthBits) {
		return ecode.ErrAESDRVAuthenticationFailed
	}

	return nil
}

// cmacCompute runs the CBC-MAC chain over msg with the session key and
// leaves the full 128-bit tag in mac.
func cmacCompute(sess *cryptodrv.Session, msg []byte, mac *[blockSize]byte) error {
	// L = E_K(0^128), K1 = double(L), K2 = double(K1).
	var l [blockSize]byte
	if err := sess.EncryptBlock(l[:], l[:]); err != nil {
		return err
	}

	k1 := doubleSubkey(&l)
	k2 := doubleSubkey(&k1)

	// The last block is padded and keyed separately so the chain below
	// only ever sees complete blocks.
	var last [blockSize]byte

	var head []byte

	switch {
	case len(msg) == 0:
		last[0] = 0x80
		xorBlock(&last, &k2)
	case len(msg)%blockSize == 0:
		head = msg[:len(msg)-blockSize]
		copy(last[:], msg[len(head):])
		xorBlock(&last, &k1)
	default:
		head = msg[:len(msg)-len(msg)%blockSize]
		n := copy(last[:], msg[len(head):])
		last[n] = 0x80
		xorBlock(&last, &k2)
	}

	var x [blockSize]byte
	for i := 0; i < len(head); i += blockSize {
		for j := range x {
			x[j] ^= head[i+j]
		}

		if err := sess.EncryptBlock(x[:], x[:]); err != nil {
			return err
		}
	}

	xorBlock(&x, &last)

	if err := sess.EncryptBlock(x[:], x[:]); err != nil {
		return err
	}

	*mac = x

	return nil
}

// writeTag copies the leading tagLengthBits bits of mac into tag, zeroing
// the unused trailing bits of the final byte.
func writeTag(tag []byte, mac *[blockSize]byte, tagLengthBits int) {
	n := (tagLengthBits + 7) / 8
	copy(tag[:n], mac[:n])

	if rem := tagLengthBits % 8; rem != 0 {
		tag[n-1] &= byte(0xFF << (8 - rem))
	}
}

// tagEqual compares the leading tagLengthBits bits of tag and mac in
// constant time.
func tagEqual(tag []byte, mac *[blockSize]byte, tagLengthBits int) bool {
	full := tagLengthBits / 8

	ok := subtle.ConstantTimeCompare(tag[:full], mac[:full])

	if rem := tagLengthBits % 8; rem != 0 {
		mask := byte(0xFF << (8 - rem))
		ok &= subtle.ConstantTimeByteEq(tag[full]&mask, mac[full]&mask)
	}

	return ok == 1
}

// doubleSubkey multiplies the block by x in GF(2^128), folding the carry
// into the low byte with the CMAC constant Rb. The carry handling is
// branch-free.
func doubleSubkey(in *[blockSize]byte) [blockSize]byte {
	const rb = 0x87

	var out [blockSize]byte
	for i := 0; i < blockSize-1; i++ {
		out[i] = in[i]<<1 | in[i+1]>>7
	}

	out[blockSize-1] = in[blockSize-1] << 1
	out[blockSize-1] ^= byte(subtle.ConstantTimeSelect(int(in[0]>>7), rb, 0))

	return out
}

// xorBlock XORs b into a in place.
func xorBlock(a, b *[blockSize]byte) {
	for i := range a {
		a[i] ^= b[i]
	}
}
