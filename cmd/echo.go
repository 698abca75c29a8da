package cmd

import (
	"context"
	"fmt"
	"io"

	"itledger/internal/extract"
)

// echoExtractor prints the extracted text before handing it back.
type echoExtractor struct {
	next extract.TextExtractor
	w    io.Writer
}

func (e *echoExtractor) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	text, err := e.next.ExtractText(ctx, r)
	if err == nil {
		fmt.Fprintf(e.w, "=== Texto extraido ===\n%s\n======================\n", text)
	}
	return text, err
}
