package media

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"sort"

	"github.com/nulzo/polymage/pkg/domain"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// EmbedPNGText inserts one text chunk per metadata pair right after IHDR.
// Latin-1 values are written as tEXt, anything else as uncompressed iTXt.
// Keys are written in sorted order so the output is deterministic.
func EmbedPNGText(png []byte, metadata map[string]string) ([]byte, error) {
	if len(png) < len(pngSignature) || !bytes.Equal(png[:len(pngSignature)], pngSignature) {
		return nil, domain.InvalidInput("not a PNG stream")
	}

	// signature + IHDR (length, type, 13 byte body, crc)
	ihdrEnd := len(pngSignature) + 4 + 4 + 13 + 4
	if len(png) < ihdrEnd || string(png[12:16]) != "IHDR" {
		return nil, domain.InvalidInput("PNG stream does not start with IHDR")
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var chunks bytes.Buffer
	for _, k := range keys {
		if len(k) == 0 || len(k) > 79 {
			return nil, domain.InvalidInput("PNG text keyword %q must be 1-79 bytes", k)
		}
		v := metadata[k]
		if latin1, ok := toLatin1(v); ok {
			body := append([]byte(k), 0)
			body = append(body, latin1...)
			writeChunk(&chunks, "tEXt", body)
			continue
		}
		// keyword, compression flag, compression method, language tag, translated keyword, text
		body := append([]byte(k), 0, 0, 0, 0, 0)
		body = append(body, v...)
		writeChunk(&chunks, "iTXt", body)
	}

	out := make([]byte, 0, len(png)+chunks.Len())
	out = append(out, png[:ihdrEnd]...)
	out = append(out, chunks.Bytes()...)
	out = append(out, png[ihdrEnd:]...)
	return out, nil
}

// ReadPNGText returns every tEXt and uncompressed iTXt entry of a PNG stream.
func ReadPNGText(r io.Reader) (map[string]string, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("read PNG signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, domain.InvalidInput("not a PNG stream")
	}

	text := make(map[string]string)
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				return text, nil
			}
			return nil, fmt.Errorf("read PNG chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		kind := string(header[4:8])

		body := make([]byte, int(length)+4) // body + crc
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("read PNG %s chunk: %w", kind, err)
		}
		body = body[:length]

		switch kind {
		case "tEXt":
			if k, v, ok := bytes.Cut(body, []byte{0}); ok {
				text[string(k)] = fromLatin1(v)
			}
		case "iTXt":
			if k, v, ok := parseITXt(body); ok {
				text[k] = v
			}
		case "IEND":
			return text, nil
		}
	}
}

func writeChunk(w *bytes.Buffer, kind string, body []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(body)))
	w.Write(length[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(kind))
	crc.Write(body)
	w.WriteString(kind)
	w.Write(body)

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}

func parseITXt(body []byte) (string, string, bool) {
	keyword, rest, ok := bytes.Cut(body, []byte{0})
	if !ok || len(rest) < 2 {
		return "", "", false
	}
	// compressed iTXt is not produced here and is skipped on read
	if rest[0] != 0 {
		return "", "", false
	}
	rest = rest[2:]
	_, rest, ok = bytes.Cut(rest, []byte{0}) // language tag
	if !ok {
		return "", "", false
	}
	_, rest, ok = bytes.Cut(rest, []byte{0}) // translated keyword
	if !ok {
		return "", "", false
	}
	return string(keyword), string(rest), true
}

func toLatin1(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return nil, false
		}
		out = append(out, byte(r))
	}
	return out, true
}

func fromLatin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
