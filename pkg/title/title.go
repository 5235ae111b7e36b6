// Package title holds the metadata a patch run gathers about an installed title.
package title

import "regexp"

var idPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{5}$`)

// ValidID reports whether id looks like a title id, e.g. BCUS98174.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Info describes one installed title.
type Info struct {
	ID   string
	Name string
	// Path is the title directory in the accessor's path space.
	Path string
}

// Encryption is the context needed to decrypt and re-encrypt a title's executable.
type Encryption struct {
	ContentID   string
	LicensePath string
	// Encrypted is set when the downloaded executable needed decryption.
	Encrypted bool
}
