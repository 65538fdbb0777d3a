package nlg

import (
	"bytes"
	"fmt"
)

// maxUtterance caps the rendered size of a single template.
const maxUtterance = 4 * 1024

// cappedBuffer collects template output and fails once it would grow past
// limit bytes.
type cappedBuffer struct {
	bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.Len()+len(p) > b.limit {
		return 0, fmt.Errorf("template output exceeds %d bytes", b.limit)
	}
	return b.Buffer.Write(p)
}
