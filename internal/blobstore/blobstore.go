// Package blobstore provides the opaque object-store boundary workers use
// to move stage inputs and outputs. Only a local filesystem backend is
// implemented; there is no S3-compatible backend, and BLOB_ENDPOINT and
// the other S3-style settings are not read by any backend.
package blobstore

import (
	"errors"
	"fmt"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/interfaces"
)

// ErrNotFound is returned by Get when key has no blob. Delete of a
// missing key returns nil, and Exists reports it as (false, nil).
var ErrNotFound = errors.New("blobstore: key not found")

// New selects and constructs a BlobStore backend from cfg. Only the file
// backend is implemented today; the S3-compatible fields on
// common.BlobConfig are carried through so a future backend can be added
// without changing callers or the interfaces.BlobStore contract.
func New(cfg common.BlobConfig, logger *common.Logger) (interfaces.BlobStore, error) {
	switch cfg.Backend {
	case "", "file":
		basePath := cfg.BasePath
		if basePath == "" {
			basePath = "data/blob"
		}
		return NewFileStore(logger, basePath)
	default:
		return nil, fmt.Errorf("blobstore: unsupported backend %q", cfg.Backend)
	}
}
