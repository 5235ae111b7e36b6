package patch

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/pkg/title"
)

// ErrEncrypted is returned when a cipher cannot handle an encrypted executable.
var ErrEncrypted = errors.New("executable is encrypted")

// selfMagic starts every signed (encrypted) executable.
var selfMagic = []byte("SCE\x00")

// Cipher decrypts and re-encrypts a title's executable.
type Cipher interface {
	Decrypt(ctx context.Context, enc *title.Encryption, dst io.Writer, src io.Reader) error
	Encrypt(ctx context.Context, enc *title.Encryption, dst io.Writer, src io.Reader) error
}

// PassthroughCipher handles executables that are stored decrypted, as emulators commonly do.
// It copies input to output and refuses signed input.
type PassthroughCipher struct{}

func (PassthroughCipher) Decrypt(ctx context.Context, enc *title.Encryption, dst io.Writer, src io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	br := bufio.NewReader(src)
	head, err := br.Peek(len(selfMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "unable to read executable header")
	}
	if bytes.Equal(head, selfMagic) {
		return ErrEncrypted
	}
	if enc != nil {
		enc.Encrypted = false
	}
	_, err = io.Copy(dst, br)

	return errors.Wrap(err, "unable to copy executable")
}

func (PassthroughCipher) Encrypt(ctx context.Context, enc *title.Encryption, dst io.Writer, src io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if enc != nil && enc.Encrypted {
		return errors.Wrap(ErrEncrypted, "passthrough cipher cannot sign executables")
	}
	_, err := io.Copy(dst, src)

	return errors.Wrap(err, "unable to copy executable")
}

var _ Cipher = PassthroughCipher{}
