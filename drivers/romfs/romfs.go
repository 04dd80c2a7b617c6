// Package romfs implements the asset layout of the read-only cartridge image.
//
// An image starts with a header naming up to MaxRegions regions, followed by
// the region data.  Every region is aligned to Align bytes.  The header is
// protected by a CRC-8 checksum, the title is stored ISO 8859-1 encoded like
// in a cartridge header.
//
//	magic    [4]byte  "N64L"
//	title    [20]byte space padded
//	count    uint32
//	regions  count * {name [16]byte, start uint32, end uint32}
//	checksum uint8    CRC-8 over all preceding bytes
//
// All integers are big endian.
package romfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"

	"github.com/sigurn/crc8"
	"golang.org/x/text/encoding/charmap"
)

const (
	Align      = 8
	alignMask  = Align - 1
	TitleSize  = 20
	NameSize   = 16
	MaxRegions = 64
)

var magic = [4]byte{'N', '6', '4', 'L'}

var (
	ErrMagic    = errors.New("romfs: not an asset image")
	ErrChecksum = errors.New("romfs: header checksum mismatch")
	ErrName     = errors.New("romfs: invalid region name")
	ErrTitle    = errors.New("romfs: invalid title")
	ErrRegion   = errors.New("romfs: invalid region bounds")
)

var headerCRC8 = crc8.MakeTable(crc8.Params{Poly: 0x07, Init: 0x00, RefIn: false, RefOut: false, XorOut: 0x00, Check: 0xF4, Name: "CRC-8"})

type header struct {
	Magic [4]byte
	Title [TitleSize]byte
	Count uint32
}

// dirEntry specifies the binary representation of a region.
type dirEntry struct {
	Name       [NameSize]byte
	Start, End uint32
}

// Region is a named byte range of the image.
type Region struct {
	Name       string
	Start, End int64
}

func (r Region) Size() int64 { return r.End - r.Start }

// Image is an opened asset image.
type Image struct {
	Title string

	dev     io.ReaderAt
	regions []Region
}

var _ fs.ReadFileFS = (*Image)(nil)

func headerSize(count int) int64 {
	return int64(binary.Size(header{}) + count*binary.Size(dirEntry{}) + 1)
}

// Read opens an image from dev.  If dev has a Size method, regions must lie
// within it.
func Read(dev io.ReaderAt) (*Image, error) {
	var hdr header
	r := io.NewSectionReader(dev, 0, 1<<31)
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMagic, err)
	}
	if hdr.Magic != magic || hdr.Count > MaxRegions {
		return nil, ErrMagic
	}

	raw := make([]byte, headerSize(int(hdr.Count)))
	if n, err := dev.ReadAt(raw, 0); n < len(raw) {
		return nil, fmt.Errorf("romfs: reading header: %w", err)
	}
	if crc8.Checksum(raw[:len(raw)-1], headerCRC8) != raw[len(raw)-1] {
		return nil, ErrChecksum
	}

	entries := make([]dirEntry, hdr.Count)
	if err := binary.Read(r, binary.BigEndian, entries); err != nil {
		return nil, err
	}

	title, err := charmap.ISO8859_1.NewDecoder().Bytes(hdr.Title[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTitle, err)
	}
	img := &Image{
		Title:   strings.TrimRight(string(title), " \x00"),
		dev:     dev,
		regions: make([]Region, len(entries)),
	}
	limit := int64(-1)
	if s, ok := dev.(interface{ Size() int64 }); ok {
		limit = s.Size()
	}
	for i, e := range entries {
		r := Region{
			Name:  string(bytes.TrimRight(e.Name[:], "\x00")),
			Start: int64(e.Start),
			End:   int64(e.End),
		}
		if r.End < r.Start || limit >= 0 && r.End > limit {
			return nil, fmt.Errorf("%w: %s [%#x, %#x)", ErrRegion, r.Name, r.Start, r.End)
		}
		img.regions[i] = r
	}
	return img, nil
}

// Regions returns all regions in image order.
func (img *Image) Regions() []Region { return slices.Clone(img.regions) }

// Region returns the named region.
func (img *Image) Region(name string) (Region, error) {
	for _, r := range img.regions {
		if r.Name == name {
			return r, nil
		}
	}
	return Region{}, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Open opens the named region for reading.
func (img *Image) Open(name string) (fs.File, error) {
	r, err := img.Region(name)
	if err != nil {
		return nil, err
	}
	return &openFile{
		SectionReader: io.NewSectionReader(img.dev, r.Start, r.Size()),
		f:             &file{name: r.Name, size: r.Size()},
	}, nil
}

// ReadFile reads and returns the content of the named region.
func (img *Image) ReadFile(name string) ([]byte, error) {
	f, err := img.Open(name)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

// Source is the content of a region to create.
type Source struct {
	Name string
	R    io.Reader
}

// Create writes an image containing sources to dev.
func Create(dev io.WriterAt, title string, sources []Source) error {
	if len(sources) > MaxRegions {
		return fmt.Errorf("romfs: %d regions, max %d", len(sources), MaxRegions)
	}
	var hdr header
	hdr.Magic = magic
	hdr.Count = uint32(len(sources))

	enc, err := charmap.ISO8859_1.NewEncoder().String(title)
	if err != nil || len(enc) > TitleSize {
		return fmt.Errorf("%w: %q", ErrTitle, title)
	}
	copy(hdr.Title[:], enc)
	for i := len(enc); i < TitleSize; i++ {
		hdr.Title[i] = ' '
	}

	entries := make([]dirEntry, len(sources))
	offset := (headerSize(len(sources)) + alignMask) &^ alignMask
	for i, src := range sources {
		if src.Name == "" || len(src.Name) > NameSize ||
			slices.ContainsFunc(entries[:i], func(e dirEntry) bool {
				return string(bytes.TrimRight(e.Name[:], "\x00")) == src.Name
			}) {
			return fmt.Errorf("%w: %q", ErrName, src.Name)
		}
		copy(entries[i].Name[:], src.Name)

		n, err := io.Copy(io.NewOffsetWriter(dev, offset), src.R)
		if err != nil {
			return fmt.Errorf("romfs: writing %s: %w", src.Name, err)
		}
		entries[i].Start = uint32(offset)
		entries[i].End = uint32(offset + n)
		offset = (offset + n + alignMask) &^ alignMask
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, &hdr)
	binary.Write(&buf, binary.BigEndian, entries)
	buf.WriteByte(crc8.Checksum(buf.Bytes(), headerCRC8))
	_, err = dev.WriteAt(buf.Bytes(), 0)
	return err
}
