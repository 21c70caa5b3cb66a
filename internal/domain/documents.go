package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateCode builds a human readable document code such as ASN-20260101120000-3f2a
func GenerateCode(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, at.UTC().Format("20060102150405"), uuid.New().String()[:4])
}

// DetailLine is one goods/quantity pair of a document edit
type DetailLine struct {
	GoodsID  string
	Quantity int64
}

// validateLines checks quantities and rejects repeated goods with dup
func validateLines(lines []DetailLine, dup *BusinessError) error {
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.GoodsID == "" || l.Quantity <= 0 {
			return fmt.Errorf("%w: goods %q quantity %d", ErrInvalidQuantity, l.GoodsID, l.Quantity)
		}
		if seen[l.GoodsID] {
			return fmt.Errorf("%w: %s", dup, l.GoodsID)
		}
		seen[l.GoodsID] = true
	}
	return nil
}

func requireOperator(operatorID string) error {
	if operatorID == "" {
		return ErrOperatorRequired
	}
	return nil
}

// unionGoods returns the distinct goods ids of a and b, a first
func unionGoods(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, g := range list {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}
