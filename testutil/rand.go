package testutil

import (
	"crypto/rand"
	"errors"
)

// docker container names are case sensitive, lower case keeps them readable
const containerCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomAlphaNum returns a random lower case alphanumeric string of the
// given length, used to keep concurrent test containers apart.
func RandomAlphaNum(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be greater than 0")
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = containerCharset[int(b)%len(containerCharset)]
	}
	return string(buf), nil
}
