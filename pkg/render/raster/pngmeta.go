package raster

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"sort"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// withTextChunks inserts tEXt chunks after the IHDR chunk. Keys are
// written in sorted order so the output is deterministic.
func withTextChunks(png []byte, meta map[string]string) ([]byte, error) {
	if !bytes.HasPrefix(png, pngSignature) {
		return nil, errors.New(errors.ErrCodeRender, "not a png stream").At(errors.StageRender)
	}
	// Signature (8) + IHDR: length (4) + type (4) + data (13) + crc (4).
	cut := 8 + 4 + 4 + 13 + 4
	if len(png) < cut {
		return nil, errors.New(errors.ErrCodeRender, "truncated png stream").At(errors.StageRender)
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out bytes.Buffer
	out.Write(png[:cut])
	for _, k := range keys {
		if meta[k] == "" {
			continue
		}
		writeChunk(&out, "tEXt", append(append([]byte(k), 0), meta[k]...))
	}
	out.Write(png[cut:])
	return out.Bytes(), nil
}

func writeChunk(out *bytes.Buffer, typ string, data []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	out.Write(length[:])
	out.WriteString(typ)
	out.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	out.Write(sum[:])
}
