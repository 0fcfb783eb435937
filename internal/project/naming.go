package project

import (
	"crypto"
	_ "crypto/sha1" // registers crypto.SHA1
	"encoding/hex"
	"fmt"

	"github.com/dyluth/coda/pkg/datastore"
)

const (
	// HashLength is how many hex characters of the digest go into a database file name.
	HashLength = 10

	// DatabaseExtension is appended to every database file name.
	DatabaseExtension = ".csv"

	// NamingHash is the digest used for database file names. Changing it
	// renames every existing project's database.
	NamingHash = crypto.SHA1
)

// DatabaseFileName derives the database file name for a project:
//
//	<project name>-<first 10 hex chars of SHA-1(project name)>.csv
//
// The same project name always yields the same file name.
func DatabaseFileName(projectName string) (string, error) {
	return DatabaseFileNameWith(NamingHash, projectName)
}

// DatabaseFileNameWith derives a database file name using hash h. If h is not
// linked into the binary it fails rather than fall back to an unhashed name
// that could overwrite another project's data.
func DatabaseFileNameWith(h crypto.Hash, projectName string) (string, error) {
	if !h.Available() {
		return "", &datastore.Error{
			Kind: datastore.ErrDigestUnavailable,
			Msg:  fmt.Sprintf("hash %v is not linked into this binary", h),
		}
	}

	d := h.New()
	d.Write([]byte(projectName))
	digest := hex.EncodeToString(d.Sum(nil))
	if len(digest) < HashLength {
		return "", &datastore.Error{
			Kind: datastore.ErrDigestUnavailable,
			Msg:  fmt.Sprintf("hash %v digest is shorter than %d hex characters", h, HashLength),
		}
	}

	return projectName + "-" + digest[:HashLength] + DatabaseExtension, nil
}
