package lifecycle

import (
	// Go Internal Packages
	"crypto/rand"
	"math/big"
	"time"
)

const (
	codePrefix   = "CN-"
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeSuffix   = 6
)

// NewCode returns a human readable transaction code, CN-YYYYMM-XXXXXX.
func NewCode(at time.Time) string {
	buf := make([]byte, 0, len(codePrefix)+7+codeSuffix)
	buf = append(buf, codePrefix...)
	buf = at.UTC().AppendFormat(buf, "200601")
	buf = append(buf, '-')
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeSuffix; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		buf = append(buf, codeAlphabet[n.Int64()])
	}
	return string(buf)
}
