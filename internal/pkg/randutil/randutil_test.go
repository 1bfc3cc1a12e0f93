package randutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_LengthAndCharset(t *testing.T) {
	for i := 0; i < 200; i++ {
		s := String(10, UpperAlnum)
		assert.Len(t, s, 10)
		for _, r := range s {
			assert.True(t, strings.ContainsRune(UpperAlnum, r), "unexpected %q in %s", r, s)
		}
	}
	assert.Empty(t, String(0, UpperAlnum))
}
