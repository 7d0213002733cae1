package document

import (
	"encoding/binary"
	"math"

	domdoc "github.com/kailas-cloud/imagedex/internal/domain/document"
)

// buildHashFields converts a domain Document into a flat map[string]string for HSET.
func buildHashFields(doc *domdoc.Document) map[string]string {
	return map[string]string{
		"source":   doc.SourceLocator(),
		"labels":   doc.Labels(),
		"entities": doc.Entities(),
		"vector":   vectorToBytes(doc.Vector()),
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
