package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// NumberPrefix starts every human-facing order number.
const NumberPrefix = "EE"

// NumberGenerator builds order numbers of the form EE + 6 clock digits + 4
// random characters. The result is 12 characters, the longest account
// reference the payment provider accepts.
type NumberGenerator struct {
	Now    func() time.Time
	Suffix func() string
}

func (g NumberGenerator) Next() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	suffix := g.Suffix
	if suffix == nil {
		suffix = randomSuffix
	}
	return fmt.Sprintf("%s%06d%s", NumberPrefix, now().UnixMilli()%1_000_000, suffix())
}

func randomSuffix() string {
	return strings.ToUpper(shortuuid.New()[:4])
}
