package randutil

import "math/rand"

const UpperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// String draws n characters uniformly from charset.
func String(n int, charset string) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
