package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/robertkozin/vidgrab/download"
	"github.com/robertkozin/vidgrab/resolve"
)

// PrintDescriptor writes d as indented json.
func PrintDescriptor(w io.Writer, d resolve.Descriptor) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// PrintOpener "opens" a url by telling a terminal user to open it themselves.
func PrintOpener(w io.Writer) download.Opener {
	return download.OpenerFunc(func(ctx context.Context, rawURL string) error {
		_, err := fmt.Fprintf(w, "could not download directly, open this in your browser:\n%s\n", rawURL)
		return err
	})
}

// PrintOutcome describes a finished download for a terminal user.
func PrintOutcome(w io.Writer, d resolve.Descriptor, out download.Outcome, dest download.Destination) error {
	var err error
	switch out.Kind {
	case download.Saved:
		_, err = fmt.Fprintf(w, "downloaded %q to %s (%s)\n", d.Title, out.Filename, dest)
	case download.OpenedExternally:
		_, err = fmt.Fprintf(w, "opening download page for %q\n", d.Title)
	}
	return err
}
