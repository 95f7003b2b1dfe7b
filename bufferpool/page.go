package bufferpool

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// compressThreshold is the page size above which Page.Compress gzips
// the buffer; at or below it Compress is a no-op. Frame.flush never
// compresses, so disk writes are always uncompressed. Page byte layout is
// out of scope for this package; Page only exposes the handful of
// accessors the buffer pool and its adapters need to move bytes
// around and let a pinNew formatter initialize a fresh block.
const compressThreshold = 8 * 1024

// Page is a fixed-size in-memory byte buffer. It carries no
// structure of its own: slotted layout, cells, and record encoding
// belong to the record layer, not the buffer pool.
type Page struct {
	data       []byte
	compressed bool
}

// NewPage allocates a zeroed page of the given size.
func NewPage(size int) *Page {
	return &Page{data: make([]byte, size)}
}

// NewPageFromBytes wraps an existing byte slice as a page without
// copying it.
func NewPageFromBytes(b []byte) *Page {
	return &Page{data: b}
}

// Contents returns the underlying buffer.
func (p *Page) Contents() []byte { return p.data }

// SetContents replaces the underlying buffer.
func (p *Page) SetContents(data []byte) { p.data = data }

// Size returns the page's length in bytes.
func (p *Page) Size() int { return len(p.data) }

// GetInt reads a 4-byte big-endian integer at offset.
func (p *Page) GetInt(offset int) (int, error) {
	if offset < 0 || offset+4 > len(p.data) {
		return 0, fmt.Errorf("page: offset %d out of bounds for GetInt", offset)
	}
	return int(binary.BigEndian.Uint32(p.data[offset:])), nil
}

// SetInt writes a 4-byte big-endian integer at offset.
func (p *Page) SetInt(offset, val int) error {
	if offset < 0 || offset+4 > len(p.data) {
		return fmt.Errorf("page: offset %d out of bounds for SetInt", offset)
	}
	binary.BigEndian.PutUint32(p.data[offset:], uint32(val))
	return nil
}

// GetBytes reads a length-prefixed byte slice starting at offset.
func (p *Page) GetBytes(offset int) ([]byte, error) {
	if offset < 0 || offset+4 > len(p.data) {
		return nil, fmt.Errorf("page: offset %d out of bounds for GetBytes", offset)
	}
	length := int(binary.BigEndian.Uint32(p.data[offset : offset+4]))
	if length < 0 || offset+4+length > len(p.data) {
		return nil, fmt.Errorf("page: invalid length-prefixed value at offset %d", offset)
	}
	out := make([]byte, length)
	copy(out, p.data[offset+4:offset+4+length])
	return out, nil
}

// SetBytes writes a length-prefixed byte slice starting at offset.
func (p *Page) SetBytes(offset int, val []byte) error {
	total := 4 + len(val)
	if offset < 0 || offset+total > len(p.data) {
		return fmt.Errorf("page: offset %d out of bounds for SetBytes", offset)
	}
	binary.BigEndian.PutUint32(p.data[offset:], uint32(len(val)))
	copy(p.data[offset+4:], val)
	return nil
}

// IsCompressed reports whether Contents currently holds gzip-compressed
// bytes rather than raw page data.
func (p *Page) IsCompressed() bool { return p.compressed }

// Compress gzips the page contents in place if the page is larger
// than compressThreshold and not already compressed.
func (p *Page) Compress() error {
	if p.compressed || len(p.data) <= compressThreshold {
		return nil
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(p.data); err != nil {
		return fmt.Errorf("page: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("page: compress: %w", err)
	}
	p.data = buf.Bytes()
	p.compressed = true
	return nil
}

// Decompress reverses Compress.
func (p *Page) Decompress() error {
	if !p.compressed {
		return nil
	}
	r, err := gzip.NewReader(bytes.NewReader(p.data))
	if err != nil {
		return fmt.Errorf("page: decompress: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("page: decompress: %w", err)
	}
	p.data = buf.Bytes()
	p.compressed = false
	return nil
}
