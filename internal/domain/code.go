package domain

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// PurchaseCodePrefix and ArtworkCodePrefix distinguish the two
	// families of scannable codes.
	PurchaseCodePrefix = "MT"
	ArtworkCodePrefix  = "AW"

	codeSuffixLen = 8
	codeCharset   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewCode produces a best-effort unique code: prefix, base36 millisecond
// timestamp, and a random alphanumeric suffix. The store's unique index
// on the code field is the real source of truth; an insert conflict is a
// retryable ErrDuplicateKey, not a generation defect.
func NewCode(prefix string) (string, error) {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	buf := make([]byte, codeSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "reading random suffix")
	}
	for i := range buf {
		buf[i] = codeCharset[int(buf[i])%len(codeCharset)]
	}

	return prefix + "-" + ts + "-" + string(buf), nil
}
