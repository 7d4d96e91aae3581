package utils

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID("bid")
	b := GenerateID("bid")

	check.True(t, strings.HasPrefix(a, "bid_"))
	check.NotEqual(t, a, b)
}
