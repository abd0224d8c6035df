package cmac

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

type selfTestVector struct {
	key     string
	message string
	tag     string
}

// The first group comes from CAVS 14.0 CMACGenAES128.rsp, the rest are
// the NIST SP 800-38B appendix D examples for AES-128 and AES-256.
var selfTestVectors = []selfTestVector{
	{
		"2b7e151628aed2a6abf7158809cf4f3c",
		"",
		"bb1d6929e95937287fa37d129b756746",
	},
	{
		"8eeca0d146fd09ffbbe0d47edcddfcec",
		"",
		"c3642ce5",
	},
	{
		"f7f922c86706277a4e98d28e1197413b",
		"33ce44bdb1ea6fffe5a29004e2cbf66c",
		"b8768355644df5a9fdff2def763f63",
	},
	{
		"6533780fc328a88d605268d62f295dc6",
		"02749f4f9ad82fa7ba41d935a6f1aa6376b30b8775b6445ac89b3eac50cd8d56",
		"0bfa134a",
	},
	{
		"e4abe343f98a2df09413c3defb85b56a",
		"f799876d19ac1b849a1a43fe9912bcaf6e1e3896ea58bcb2dfdc4716e379b440",
		"e08428dbbc13ff9432048c0ad95731",
	},
	{
		"2b7e151628aed2a6abf7158809cf4f3c",
		"6bc1bee22e409f96e93d7e117393172a",
		"070a16b46b4d4144f79bdd9dd04a287c",
	},
	{
		"2b7e151628aed2a6abf7158809cf4f3c",
		"6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c" +
			"9eb76fac45af8e5130c81c46a35ce411",
		"dfa66747de9ae63030ca32611497c827",
	},
	{
		"2b7e151628aed2a6abf7158809cf4f3c",
		"6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e51" +
			"30c81c46a35ce411e5fbc1191a0a52eff69f2445df4f9b17ad2b417be66c3710",
		"51f0bebf7e3b9d92fc49741779363cfe",
	},
	{
		"603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4",
		"",
		"028962f61b7bf89efc6b551f4667d983",
	},
	{
		"603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4",
		"6bc1bee22e409f96e93d7e117393172a",
		"28a7023f452e8f82bd4bf28d8c37c35c",
	},
	{
		"603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4",
		"6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c" +
			"9eb76fac45af8e5130c81c46a35ce411",
		"aaf3d8f1de5640c232f5b169b9c911e6",
	},
	{
		"603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4",
		"6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e51" +
			"30c81c46a35ce411e5fbc1191a0a52eff69f2445df4f9b17ad2b417be66c3710",
		"e1992190549f6ed5696a2c056c315410",
	},
}

// SelfTest generates and verifies the checkup vectors against the given
// device instance. With verbose set, per-vector results are printed to
// standard output. A nil return means every vector passed.
func SelfTest(verbose bool, deviceInstance int) error {
	if verbose {
		fmt.Printf("CMAC tag test\n  keybits msgbytes tagbits\n")
	}

	for i, tv := range selfTestVectors {
		if err := runSelfTestVector(tv, verbose, deviceInstance); err != nil {
			return fmt.Errorf("cmac self test: vector %d: %w", i, err)
		}
	}

	return nil
}

func runSelfTestVector(tv selfTestVector, verbose bool, deviceInstance int) error {
	key, err := hex.DecodeString(tv.key)
	if err != nil {
		return err
	}

	msg, err := hex.DecodeString(tv.message)
	if err != nil {
		return err
	}

	want, err := hex.DecodeString(tv.tag)
	if err != nil {
		return err
	}

	var ctx Context

	ctx.Init()
	defer ctx.Free()

	if err := ctx.SetDeviceInstance(deviceInstance); err != nil {
		return err
	}

	// Wait for the device rather than failing a checkup on contention.
	if err := ctx.SetDeviceLockWaitTicks(-1); err != nil {
		return err
	}

	if err := ctx.SetKey(CipherAES, key, len(key)*8); err != nil {
		return err
	}

	got := make([]byte, len(want))
	if err := ctx.GenerateTag(msg, len(msg)*8, got, len(want)*8); err != nil {
		return err
	}

	if !bytes.Equal(got, want) {
		return fmt.Errorf(
			"tag mismatch: got %s want %s",
			hex.EncodeToString(got), tv.tag,
		)
	}

	if err := ctx.VerifyTag(msg, len(msg)*8, want, len(want)*8); err != nil {
		return err
	}

	if verbose {
		fmt.Printf("  %7d %8d %7d\n", len(key)*8, len(msg), len(want)*8)
	}

	return nil
}
