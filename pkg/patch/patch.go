// Package patch rewrites the server URL baked into a title's executable.
package patch

import (
	"bytes"
	"net/url"

	"github.com/pkg/errors"
)

var (
	ErrNoTargets  = errors.New("no patchable url found")
	ErrInvalidURL = errors.New("url must be an absolute http or https url")
	ErrURLTooLong = errors.New("url is longer than the space available")
)

// Patcher verifies and applies a URL patch to a binary held in memory.
type Patcher interface {
	// Verify reports whether url can be patched in without applying anything.
	Verify(url string) error
	// Patch replaces every target with url.
	Patch(url string) error
	// Bytes returns the current binary.
	Bytes() []byte
}

// Target is a NUL-terminated URL string found in a binary.
type Target struct {
	Offset int
	// Length is the space available for a replacement, excluding the terminator.
	Length int
	Value  string
}

var prefixes = [][]byte{[]byte("http://"), []byte("https://")}

const maxTargetLength = 256

// URLPatcher patches every NUL-terminated http(s) URL string found in a binary.
type URLPatcher struct {
	data    []byte
	targets []Target
}

// NewURLPatcher scans data for targets. data is patched in place.
func NewURLPatcher(data []byte) *URLPatcher {
	return &URLPatcher{data: data, targets: findTargets(data)}
}

func printable(b byte) bool {
	return b >= 0x21 && b <= 0x7e
}

func findTargets(data []byte) []Target {
	var targets []Target
	for i := 0; i < len(data); i++ {
		if i > 0 && data[i-1] != 0 {
			continue
		}
		matched := false
		for _, prefix := range prefixes {
			if bytes.HasPrefix(data[i:], prefix) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		end := i
		for end < len(data) && end-i < maxTargetLength && printable(data[end]) {
			end++
		}
		if end >= len(data) || data[end] != 0 {
			continue
		}

		// trailing padding NULs belong to the target
		length := end - i
		for pad := end + 1; pad < len(data) && data[pad] == 0 && length < maxTargetLength; pad++ {
			length++
		}

		targets = append(targets, Target{Offset: i, Length: length, Value: string(data[i:end])})
		i = end
	}

	return targets
}

// Targets returns the URL strings that will be replaced.
func (p *URLPatcher) Targets() []Target {
	return append([]Target(nil), p.targets...)
}

func (p *URLPatcher) Verify(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(ErrInvalidURL, "%q", rawURL)
	}
	if len(p.targets) == 0 {
		return ErrNoTargets
	}
	for _, t := range p.targets {
		if len(rawURL) > t.Length {
			return errors.Wrapf(ErrURLTooLong, "%d bytes available at offset %#x, got %d", t.Length, t.Offset, len(rawURL))
		}
	}

	return nil
}

func (p *URLPatcher) Patch(rawURL string) error {
	err := p.Verify(rawURL)
	if err != nil {
		return err
	}

	for i, t := range p.targets {
		region := p.data[t.Offset : t.Offset+t.Length]
		n := copy(region, rawURL)
		for j := n; j < len(region); j++ {
			region[j] = 0
		}
		p.targets[i].Value = rawURL
	}

	return nil
}

func (p *URLPatcher) Bytes() []byte {
	return p.data
}

var _ Patcher = (*URLPatcher)(nil)
