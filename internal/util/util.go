package util

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

func RandUint16() uint16 {
	val, err := rand.Int(rand.Reader, big.NewInt(1<<16))
	if err != nil {
		panic(err)
	}
	return uint16(val.Uint64())
}

func RandomBytes(size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func RandomHex(size int) (string, error) {
	b, err := RandomBytes(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
