package gtfs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// StdinPrompt is the default operator-assisted resolver: it writes a
// prompt to out and reads a line from in. Callers serialize access via
// the Fetcher's promptMu, so Resolve itself does no locking.
type StdinPrompt struct {
	in  *bufio.Reader
	out io.Writer
}

func NewStdinPrompt(in io.Reader, out io.Writer) *StdinPrompt {
	return &StdinPrompt{in: bufio.NewReader(in), out: out}
}

// Resolve prints the reason a dataset could not be downloaded
// automatically and asks for a direct URL or "skip".
func (p *StdinPrompt) Resolve(ctx context.Context, datasetID, reason string) (string, bool) {
	fmt.Fprintf(p.out, "gtfs dataset %q: %s. Enter a direct URL, or \"skip\": ", datasetID, reason)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	answer := strings.TrimSpace(line)
	if answer == "" || strings.EqualFold(answer, "skip") {
		return "", false
	}
	return answer, true
}
