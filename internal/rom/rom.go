package rom

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/cespare/xxhash"
)

// maxImage bounds how much is read out of a file or archive entry.
const maxImage = 1 << 20

var ErrNoImage = errors.New("archive contains no rom image")

// ROM is a program image plus what we know about where it came from.
type ROM struct {
	Name string
	Data []byte
	Hash uint64
}

// New wraps raw program bytes.
func New(name string, data []byte) *ROM {
	return &ROM{Name: name, Data: data, Hash: xxhash.Sum64(data)}
}

// Fingerprint is the hex xxhash of the image, used to key save states.
func (r *ROM) Fingerprint() string { return fmt.Sprintf("%016x", r.Hash) }

// SCHIP reports whether the file extension marks a Super-CHIP program.
func (r *ROM) SCHIP() bool {
	switch strings.ToLower(filepath.Ext(r.Name)) {
	case ".sc8", ".sch", ".schip":
		return true
	}
	return false
}

// Load reads a ROM from disk. Images inside .zip, .gz and .7z archives are
// unpacked; anything else is taken as is.
func Load(path string) (*ROM, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rom: %w", err)
	}
	name := filepath.Base(path)

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		name = strings.TrimSuffix(name, filepath.Ext(name))
		data, err = gunzip(raw)
	case ".zip":
		name, data, err = unzip(raw)
	case ".7z":
		name, data, err = un7z(raw)
	default:
		data = raw
	}
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", filepath.Base(path), err)
	}
	return New(name, data), nil
}

func gunzip(raw []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return readLimited(zr)
}

func unzip(raw []byte) (string, []byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", nil, err
	}
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
		if f.FileInfo().IsDir() {
			names[i] = ""
		}
	}
	i := pick(names)
	if i < 0 {
		return "", nil, ErrNoImage
	}
	rc, err := zr.File[i].Open()
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()
	data, err := readLimited(rc)
	return filepath.Base(names[i]), data, err
}

func un7z(raw []byte) (string, []byte, error) {
	r, err := sevenzip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", nil, err
	}
	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
		if f.FileInfo().IsDir() {
			names[i] = ""
		}
	}
	i := pick(names)
	if i < 0 {
		return "", nil, ErrNoImage
	}
	rc, err := r.File[i].Open()
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()
	data, err := readLimited(rc)
	return filepath.Base(names[i]), data, err
}

// pick prefers an entry with a known program extension, then the first file.
// Empty names are skipped.
func pick(names []string) int {
	first := -1
	for i, n := range names {
		if n == "" {
			continue
		}
		switch strings.ToLower(filepath.Ext(n)) {
		case ".ch8", ".c8", ".sc8", ".sch", ".rom":
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImage+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImage {
		return nil, fmt.Errorf("image larger than %d bytes", maxImage)
	}
	return data, nil
}

// FromInstructions assembles big-endian opcode words into a program image.
func FromInstructions(ops ...uint16) []byte {
	out := make([]byte, 0, 2*len(ops))
	for _, op := range ops {
		out = append(out, byte(op>>8), byte(op))
	}
	return out
}
