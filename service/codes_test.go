package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomCodeAlphabet(t *testing.T) {
	for _, ambiguous := range []string{"0", "O", "1", "I", "L"} {
		assert.NotContains(t, codeAlphabet, ambiguous)
	}
	for i := 0; i < 100; i++ {
		code := randomCode(5)
		assert.Len(t, code, 5)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c))
		}
	}
}
