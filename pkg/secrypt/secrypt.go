// Package secrypt implements the AES-256-CBC payload envelope shared with the
// web client. Ciphertext layout is base64(iv || ct) with PKCS#7 padding; the
// key is the first 32 bytes of a 64-char hex string.
package secrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrInvalidKey        = errors.New("secrypt: key must be a 64-char hex string")
	ErrInvalidCiphertext = errors.New("secrypt: invalid ciphertext")
)

type Codec struct {
	key []byte
}

func NewCodec(hexKey string) (*Codec, error) {
	if len(hexKey) < 64 {
		return nil, ErrInvalidKey
	}
	key, err := hex.DecodeString(hexKey[:64])
	if err != nil {
		return nil, ErrInvalidKey
	}
	return &Codec{key: key}, nil
}

// Encrypt marshals v to JSON and seals it into the transport envelope.
func (c *Codec) Encrypt(v interface{}) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "secrypt: marshal payload")
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	padded := pkcs7Pad(plain, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	return base64.StdEncoding.EncodeToString(append(iv, ct...)), nil
}

// Decrypt opens the envelope and unmarshals the JSON payload into v.
func (c *Codec) Decrypt(data string, v interface{}) error {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return ErrInvalidCiphertext
	}
	if len(raw) < aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return err
	}

	iv, ct := raw[:aes.BlockSize], raw[aes.BlockSize:]
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return err
	}
	return json.Unmarshal(plain, v)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	pad := make([]byte, n)
	for i := range pad {
		pad[i] = byte(n)
	}
	return append(b, pad...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrInvalidCiphertext
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrInvalidCiphertext
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrInvalidCiphertext
		}
	}
	return b[:len(b)-n], nil
}
