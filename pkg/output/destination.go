// Package output describes where an export sink writes its accumulated cards.
package output

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedDestination is returned by a sink asked to write to a
// destination kind it cannot serve.
var ErrUnsupportedDestination = errors.New("destination kind not supported")

// Kind identifies the type of a Destination.
type Kind int

const (
	// KindFile is a path on the local filesystem.
	KindFile Kind = iota + 1

	// KindStream is an already open, possibly non-seekable writer.
	KindStream

	// KindCollection is a named collection in a document database.
	KindCollection
)

// String returns the kind name used in logs and errors.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindStream:
		return "stream"
	case KindCollection:
		return "collection"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Destination is the target of a sink's Finalize call.
type Destination struct {
	Kind Kind

	// Path is set for KindFile.
	Path string

	// Writer is set for KindStream.
	Writer io.Writer

	// Name is set for KindCollection.
	Name string
}

// File returns a destination writing to path.
func File(path string) Destination {
	return Destination{Kind: KindFile, Path: path}
}

// Stream returns a destination writing to w.
func Stream(w io.Writer) Destination {
	return Destination{Kind: KindStream, Writer: w}
}

// Collection returns a destination writing to the named collection.
func Collection(name string) Destination {
	return Destination{Kind: KindCollection, Name: name}
}

// String describes the destination for logging.
func (d Destination) String() string {
	switch d.Kind {
	case KindFile:
		return "file:" + d.Path
	case KindStream:
		return "stream"
	case KindCollection:
		return "collection:" + d.Name
	default:
		return d.Kind.String()
	}
}

// Unsupported builds the error a sink returns for a destination it cannot serve.
func Unsupported(sink string, d Destination) error {
	return fmt.Errorf("%w: %s output cannot be written to a %s destination", ErrUnsupportedDestination, sink, d.Kind)
}
