package replay

import (
	"io/fs"

	"github.com/pkg/errors"
)

var (
	ErrNotAReplay     = errors.New("not a replay file")
	ErrInvalidVersion = errors.New("unsupported replay version")
	ErrCorrupted      = errors.New("replay is corrupted")
	ErrDataMismatch   = errors.New("replay data does not match its checksum")
	// ErrMetadataOnly is returned when the header is readable but the
	// frames were written by a version too old to replay.
	ErrMetadataOnly = errors.New("replay only has metadata")
)

// ReadResult classifies the outcome of reading a replay file.
type ReadResult uint8

const (
	Valid ReadResult = iota
	MetadataOnly
	InvalidVersion
	DataMismatch
	NotAReplay
	Corrupted
	FileNotFound
)

var readResultNames = [...]string{
	"valid",
	"metadata only",
	"invalid version",
	"data mismatch",
	"not a replay",
	"corrupted",
	"file not found",
}

func (r ReadResult) String() string {
	if int(r) < len(readResultNames) {
		return readResultNames[r]
	}
	return "unknown"
}

// ResultOf maps an error returned by this package to its read result.
func ResultOf(err error) ReadResult {
	switch {
	case nil == err:
		return Valid
	case errors.Is(err, fs.ErrNotExist):
		return FileNotFound
	case errors.Is(err, ErrNotAReplay):
		return NotAReplay
	case errors.Is(err, ErrInvalidVersion):
		return InvalidVersion
	case errors.Is(err, ErrMetadataOnly):
		return MetadataOnly
	case errors.Is(err, ErrDataMismatch):
		return DataMismatch
	}
	return Corrupted
}
