package libstasm_test

import (
	"errors"
	"testing"

	stasm "github.com/GreatValueCreamSoda/golandmarks/c/libstasm"
)

func TestSearchSingleRejectsMismatchedBuffer(t *testing.T) {
	cases := []struct {
		name          string
		img           []byte
		width, height int
	}{
		{"empty", nil, 0, 0},
		{"short", make([]byte, 15), 4, 4},
		{"long", make([]byte, 17), 4, 4},
		{"negative", make([]byte, 4), -2, -2},
	}

	for _, tc := range cases {
		_, found, err := stasm.SearchSingle(tc.img, tc.width, tc.height, "", "")
		if !errors.Is(err, stasm.ErrImageSize) {
			t.Fatalf("%s: expected ErrImageSize, got %v", tc.name, err)
		}
		if found {
			t.Fatalf("%s: found reported for a rejected buffer", tc.name)
		}
	}
}
