package protocol

import "errors"

var (
	ErrEmpty              = errors.New("protocol: empty extrinsic")
	ErrUnsupportedVersion = errors.New("protocol: unsupported version")
	ErrTruncated          = errors.New("protocol: truncated data")
	ErrInvalidSignature   = errors.New("protocol: invalid signature block")
	ErrUnknownScheme      = errors.New("protocol: unknown signature scheme")
	ErrUnknownCall        = errors.New("protocol: unknown call")
	ErrInvalidArgs        = errors.New("protocol: invalid call args")
)
