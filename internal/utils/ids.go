package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// businessID builds identifiers like MER_MB4X2K1_A3F8K2: a fixed prefix,
// the millisecond timestamp in base36, and six random characters. The
// timestamp keeps ids roughly sortable; the suffix carries the entropy.
func businessID(prefix string) (string, error) {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate id suffix: %w", err)
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s_%s_%s", prefix, ts, suffix), nil
}

// GenerateMerchantID creates a public merchant identifier.
func GenerateMerchantID() (string, error) {
	return businessID("MER")
}

// GenerateTransactionID creates a public transaction identifier.
func GenerateTransactionID() (string, error) {
	return businessID("TXN")
}
