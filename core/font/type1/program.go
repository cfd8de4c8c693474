package type1

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"regexp"

	"github.com/npillmayer/fontloom/core"
)

// Program is a Type 1 font program, split into its three parts: the clear-text
// header, the encrypted body and the trailer of zeros. The parts are kept as
// they are found in a font file; the program is never interpreted. It is
// carried along for embedding the font into documents.
type Program struct {
	Header  []byte // clear text, up to and including 'currentfile eexec'
	Body    []byte // binary, eexec-encrypted
	Trailer []byte // 512 zeros, usually followed by cleartomark
}

var startOfBody = regexp.MustCompile(`^\s*currentfile\s+eexec\s*$`)

const trailerZeros = 512

// ReadPFA reads a font program in ASCII format. Carriage returns are removed
// from header and trailer.
func ReadPFA(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, core.WrapError(err, core.EFORMAT, "cannot read PFA data")
	}
	lines := splitLines(data)
	p := &Program{}
	var header bytes.Buffer
	i, found := 0, false
	for i < len(lines) && !found {
		header.Write(bytes.ReplaceAll(lines[i], []byte{'\r'}, nil))
		found = startOfBody.Match(bytes.TrimRight(lines[i], "\r\n"))
		i++
	}
	if !found {
		return nil, core.Error(core.EFORMAT, "PFA: no eexec section found")
	}
	p.Header = header.Bytes()
	// the trailer consists of the trailing lines holding 512 zeros
	zeros, t := 0, len(lines)
	for t > i && zeros < trailerZeros {
		t--
		zeros += bytes.Count(lines[t], []byte{'0'})
	}
	if zeros != trailerZeros {
		return nil, core.Error(core.EFORMAT, "PFA: trailer has %d zeros instead of %d", zeros, trailerZeros)
	}
	var trailer bytes.Buffer
	for _, line := range lines[t:] {
		trailer.Write(bytes.ReplaceAll(line, []byte{'\r'}, nil))
	}
	p.Trailer = trailer.Bytes()
	var body bytes.Buffer
	for _, line := range lines[i:t] {
		cleaned := bytes.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\r', '\n':
				return -1
			}
			return r
		}, line)
		b := make([]byte, hex.DecodedLen(len(cleaned)))
		if _, err := hex.Decode(b, cleaned); err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "PFA: body is not in hex format")
		}
		body.Write(b)
	}
	p.Body = body.Bytes()
	return p, nil
}

// splitLines splits data after every newline, keeping line endings.
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lines = append(lines, data)
			break
		}
		lines = append(lines, data[:i+1])
		data = data[i+1:]
	}
	return lines
}

// PFB segment types
const (
	pfbMarker  = 0x80
	pfbASCII   = 1
	pfbBinary  = 2
	pfbEOF     = 3
	pfbMaxSize = 1 << 24
)

// ReadPFB reads a font program in binary (segmented) format. A PFB file holds
// three segments (ASCII, binary, ASCII), each introduced by a marker byte, a
// segment type and a 32-bit little endian length.
func ReadPFB(r io.Reader) (*Program, error) {
	br := bufio.NewReader(r)
	var segments [3][]byte
	for i, typ := range []byte{pfbASCII, pfbBinary, pfbASCII} {
		var hdr struct {
			Marker, Type byte
			Length       uint32
		}
		if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "PFB: cannot read segment header")
		}
		if hdr.Marker != pfbMarker || hdr.Type != typ {
			return nil, core.Error(core.EFORMAT, "PFB: not a PFB file (segment %d)", i+1)
		}
		if hdr.Length > pfbMaxSize {
			return nil, core.Error(core.EFORMAT, "PFB: segment %d too large", i+1)
		}
		segments[i] = make([]byte, hdr.Length)
		if _, err := io.ReadFull(br, segments[i]); err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "PFB: segment %d truncated", i+1)
		}
	}
	var eof [2]byte
	if _, err := io.ReadFull(br, eof[:]); err != nil || eof[0] != pfbMarker || eof[1] != pfbEOF {
		return nil, core.Error(core.EFORMAT, "PFB: missing end-of-file marker")
	}
	return &Program{Header: segments[0], Body: segments[1], Trailer: segments[2]}, nil
}

// WritePFB writes the program in binary (segmented) format.
func (p *Program) WritePFB(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, seg := range [][]byte{p.Header, p.Body, p.Trailer} {
		typ := byte(pfbASCII)
		if i == 1 {
			typ = pfbBinary
		}
		bw.Write([]byte{pfbMarker, typ})
		binary.Write(bw, binary.LittleEndian, uint32(len(seg)))
		bw.Write(seg)
	}
	bw.Write([]byte{pfbMarker, pfbEOF})
	return bw.Flush()
}

// WritePFA writes the program in ASCII format, with the body hex-encoded in
// lines of 64 characters.
func (p *Program) WritePFA(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.Write(p.Header)
	if len(p.Header) > 0 && p.Header[len(p.Header)-1] != '\n' {
		bw.WriteByte('\n')
	}
	enc := make([]byte, 64)
	for body := p.Body; len(body) > 0; {
		n := min(32, len(body))
		hex.Encode(enc, body[:n])
		bw.Write(enc[:2*n])
		bw.WriteByte('\n')
		body = body[n:]
	}
	bw.Write(p.Trailer)
	return bw.Flush()
}
