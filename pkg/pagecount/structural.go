package pagecount

import (
	"bytes"
	"fmt"

	pdf "github.com/ledongthuc/pdf"
)

// StructuralCount reads the page count declared by the PDF page tree.
func StructuralCount(data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty file", ErrMalformedDocument)
	}
	// the parser panics on some corrupt inputs
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrMalformedDocument, r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	n = r.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("%w: no pages", ErrMalformedDocument)
	}
	return n, nil
}
