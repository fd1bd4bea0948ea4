package service

import (
	"crypto/rand"
	"math/big"
)

// codeAlphabet excludes visually confusable characters (0/O, 1/I/L) so
// codes survive being read off a projector or typed from a phone.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func randomCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			// crypto/rand only fails if the platform entropy source is
			// broken; nothing sensible to do but stop
			panic(err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}
