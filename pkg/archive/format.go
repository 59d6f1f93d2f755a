package archive

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/resctl/resctl/internal/logging"
)

// Format is the container layout of an archive.
type Format int

const (
	Zip Format = iota
	Tar
)

var FormatIDs = map[Format][]string{
	Zip: {"zip", "jar", ""},
	Tar: {"tar"},
}

func (f Format) String() string {
	if ids, ok := FormatIDs[f]; ok {
		return ids[0]
	}
	return fmt.Sprintf("format(%d)", int(f))
}

func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(s)
	for f, ids := range FormatIDs {
		for _, id := range ids {
			if s == id {
				return f, nil
			}
		}
	}
	return Zip, fmt.Errorf("unknown archive format %q", s)
}

var errStop = errors.New("stop")

type entry struct {
	name string
	dir  bool
	open func() (io.ReadCloser, error)
}

func (e entry) read() ([]byte, error) {
	rc, err := e.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// walk calls fn for every entry of the archive in r, in stored order, until
// fn returns errStop or an error. Entries must be read inside fn.
func walk(r io.Reader, f Format, fn func(entry) error) error {
	var err error
	switch f {
	case Zip:
		err = walkZip(r, fn)
	case Tar:
		err = walkTar(r, fn)
	default:
		err = fmt.Errorf("unknown archive format %d", int(f))
	}
	if err == errStop {
		return nil
	}
	return err
}

// walkZip buffers the archive: the zip central directory sits at the end
// of the file and the reader needs random access. When the directory is
// missing or damaged the local headers are scanned in stored order instead.
func walkZip(r io.Reader, fn func(entry) error) error {
	bs, readErr := io.ReadAll(r)
	if readErr == nil {
		zr, err := zip.NewReader(bytes.NewReader(bs), int64(len(bs)))
		if err == nil {
			for _, f := range zr.File {
				if err := fn(entry{name: f.Name, dir: f.FileInfo().IsDir(), open: f.Open}); err != nil {
					return err
				}
			}
			return nil
		}
		readErr = err
	}
	if err := scanZip(bs, fn); err != nil {
		return err
	}
	return readErr
}

const (
	zipLocalHeaderSig    = 0x04034b50
	zipDataDescriptorSig = 0x08074b50
	zipLocalHeaderLen    = 30
	zipDataDescriptorLen = 12
	zipFlagDescriptor    = 0x8
)

var errZipTruncated = errors.New("zip: truncated entry")

// scanZip calls fn for each local file entry of bs until it reaches
// something that is not a local file header.
func scanZip(bs []byte, fn func(entry) error) error {
	for len(bs) >= 4 && binary.LittleEndian.Uint32(bs) == zipLocalHeaderSig {
		e, n, err := nextZipEntry(bs)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
		bs = bs[n:]
	}
	return nil
}

// nextZipEntry decodes the local file entry at the start of bs and returns
// it with the number of bytes it occupies.
func nextZipEntry(bs []byte) (entry, int, error) {
	if len(bs) < zipLocalHeaderLen {
		return entry{}, 0, errZipTruncated
	}
	var (
		flags    = binary.LittleEndian.Uint16(bs[6:])
		method   = binary.LittleEndian.Uint16(bs[8:])
		crc      = binary.LittleEndian.Uint32(bs[14:])
		size     = int(binary.LittleEndian.Uint32(bs[18:]))
		nameLen  = int(binary.LittleEndian.Uint16(bs[26:]))
		extraLen = int(binary.LittleEndian.Uint16(bs[28:]))
	)
	start := zipLocalHeaderLen + nameLen + extraLen
	if start > len(bs) {
		return entry{}, 0, errZipTruncated
	}
	name := string(bs[zipLocalHeaderLen : zipLocalHeaderLen+nameLen])
	body := bs[start:]
	if method != zip.Store && method != zip.Deflate {
		return entry{}, 0, fmt.Errorf("zip: entry %s: unsupported method %d", name, method)
	}

	var (
		content []byte
		err     error
	)
	switch {
	case flags&zipFlagDescriptor == 0:
		if size > len(body) {
			return entry{}, 0, errZipTruncated
		}
		body = body[:size]
		content = body
		if method == zip.Deflate {
			content, err = io.ReadAll(flate.NewReader(bytes.NewReader(body)))
		}
	case method == zip.Deflate:
		// The decompressor reads byte by byte from a ByteReader, so it stops
		// exactly at the end of the deflate stream.
		br := bytes.NewReader(body)
		content, err = io.ReadAll(flate.NewReader(br))
		size = len(body) - br.Len()
	default:
		size = storedSize(body)
		if size < 0 {
			return entry{}, 0, errZipTruncated
		}
		content = body[:size]
	}
	if err != nil {
		return entry{}, 0, fmt.Errorf("zip: entry %s: %w", name, err)
	}

	n := start + size
	if flags&zipFlagDescriptor != 0 {
		desc := bs[n:]
		if len(desc) >= 4 && binary.LittleEndian.Uint32(desc) == zipDataDescriptorSig {
			desc = desc[4:]
			n += 4
		}
		if len(desc) < zipDataDescriptorLen {
			return entry{}, 0, errZipTruncated
		}
		crc = binary.LittleEndian.Uint32(desc)
		n += zipDataDescriptorLen
	}
	if crc32.ChecksumIEEE(content) != crc {
		return entry{}, 0, fmt.Errorf("zip: entry %s: checksum error", name)
	}

	e := entry{
		name: name,
		dir:  strings.HasSuffix(name, "/"),
		open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(content)), nil },
	}
	return e, n, nil
}

// storedSize finds the length of a stored body followed by a signed data
// descriptor whose compressed size matches it, or -1.
func storedSize(body []byte) int {
	var sig [4]byte
	binary.LittleEndian.PutUint32(sig[:], zipDataDescriptorSig)
	for off := 0; ; {
		i := bytes.Index(body[off:], sig[:])
		if i < 0 {
			return -1
		}
		p := off + i
		if p+4+zipDataDescriptorLen > len(body) {
			return -1
		}
		if int(binary.LittleEndian.Uint32(body[p+8:])) == p {
			return p
		}
		off = p + 1
	}
}

func walkTar(r io.Reader, fn func(entry) error) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		e := entry{
			name: hdr.Name,
			dir:  hdr.Typeflag != tar.TypeReg,
			open: func() (io.ReadCloser, error) { return io.NopCloser(tr), nil },
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

// collect decompresses r and stores every accepted file entry in into.
// Entries read before a failure are kept.
func collect(r io.Reader, opts Options, f filter, into map[string][]byte, log *logging.Logger) error {
	dr, err := opts.Compression.reader(r)
	if err != nil {
		return err
	}
	defer dr.Close()

	return walk(dr, opts.Format, func(e entry) error {
		if e.dir || !f.match(e.name) {
			log.Debugf("archive %s: skipping entry %s dir=%v", opts.Name, e.name, e.dir)
			return nil
		}
		bs, err := e.read()
		if err != nil {
			return err
		}
		log.Debugf("archive %s: entry %s size=%d", opts.Name, e.name, len(bs))
		into[e.name] = bs
		return nil
	})
}
