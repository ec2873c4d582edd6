package shader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"fortio.org/safecast"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/generator"
)

// DiskShaderSize is the encoded size of a DiskShader.
const DiskShaderSize = 6 * 8

// DiskShader locates one shader's stage texts inside a blob's data
// section. Offsets are relative to the start of the data section; an
// absent stage has offset and size 0.
type DiskShader struct {
	OffsetVertex   uint64
	SizeVertex     uint64
	OffsetFragment uint64
	SizeFragment   uint64
	OffsetCompute  uint64
	SizeCompute    uint64
}

// Range returns the offset and size of stage.
func (d *DiskShader) Range(stage ast.Stage) (offset, size uint64) {
	switch stage {
	case ast.StageVertex:
		return d.OffsetVertex, d.SizeVertex
	case ast.StageFragment:
		return d.OffsetFragment, d.SizeFragment
	case ast.StageCompute:
		return d.OffsetCompute, d.SizeCompute
	}
	return 0, 0
}

func (d *DiskShader) setRange(stage ast.Stage, offset, size uint64) {
	switch stage {
	case ast.StageVertex:
		d.OffsetVertex, d.SizeVertex = offset, size
	case ast.StageFragment:
		d.OffsetFragment, d.SizeFragment = offset, size
	case ast.StageCompute:
		d.OffsetCompute, d.SizeCompute = offset, size
	}
}

// MarshalBinary encodes d as six little-endian uint64 values.
func (d DiskShader) MarshalBinary() ([]byte, error) {
	return d.append(make([]byte, 0, DiskShaderSize)), nil
}

func (d *DiskShader) append(b []byte) []byte {
	b = binary.LittleEndian.AppendUint64(b, d.OffsetVertex)
	b = binary.LittleEndian.AppendUint64(b, d.SizeVertex)
	b = binary.LittleEndian.AppendUint64(b, d.OffsetFragment)
	b = binary.LittleEndian.AppendUint64(b, d.SizeFragment)
	b = binary.LittleEndian.AppendUint64(b, d.OffsetCompute)
	return binary.LittleEndian.AppendUint64(b, d.SizeCompute)
}

// UnmarshalBinary decodes a DiskShader from exactly DiskShaderSize bytes.
func (d *DiskShader) UnmarshalBinary(data []byte) error {
	if len(data) != DiskShaderSize {
		return fmt.Errorf("disk shader: expected %d bytes, got %d", DiskShaderSize, len(data))
	}
	d.OffsetVertex = binary.LittleEndian.Uint64(data[0:])
	d.SizeVertex = binary.LittleEndian.Uint64(data[8:])
	d.OffsetFragment = binary.LittleEndian.Uint64(data[16:])
	d.SizeFragment = binary.LittleEndian.Uint64(data[24:])
	d.OffsetCompute = binary.LittleEndian.Uint64(data[32:])
	d.SizeCompute = binary.LittleEndian.Uint64(data[40:])
	return nil
}

// EncodeBlob packs the target output of every shader into one blob:
//
//	u32 count
//	count × DiskShader
//	stage texts, concatenated in shader then stage order
func EncodeBlob(shaders []*Shader, target generator.Target) ([]byte, error) {
	count, err := safecast.Convert[uint32](len(shaders))
	if err != nil {
		return nil, fmt.Errorf("blob: too many shaders: %w", err)
	}

	var data bytes.Buffer
	records := make([]DiskShader, len(shaders))
	for i, s := range shaders {
		for _, stage := range ast.Stages {
			text := s.Outputs[target][stage]
			if text == "" {
				continue
			}
			offset, err := safecast.Convert[uint64](data.Len())
			if err != nil {
				return nil, fmt.Errorf("blob: %w", err)
			}
			size, err := safecast.Convert[uint64](len(text))
			if err != nil {
				return nil, fmt.Errorf("blob: %w", err)
			}
			records[i].setRange(stage, offset, size)
			data.WriteString(text)
		}
	}

	out := make([]byte, 0, 4+len(records)*DiskShaderSize+data.Len())
	out = binary.LittleEndian.AppendUint32(out, count)
	for i := range records {
		out = records[i].append(out)
	}
	return append(out, data.Bytes()...), nil
}

// WriteBlob encodes the shaders' target output and writes it to w.
func WriteBlob(w io.Writer, shaders []*Shader, target generator.Target) error {
	blob, err := EncodeBlob(shaders, target)
	if err != nil {
		return err
	}
	_, err = w.Write(blob)
	return err
}

// Blob is a decoded blob.
type Blob struct {
	Shaders []DiskShader
	Data    []byte
}

var errTruncated = errors.New("blob: truncated")

// DecodeBlob parses a blob produced by EncodeBlob.
func DecodeBlob(data []byte) (*Blob, error) {
	if len(data) < 4 {
		return nil, errTruncated
	}
	count := uint64(binary.LittleEndian.Uint32(data))
	data = data[4:]
	if uint64(len(data)) < count*DiskShaderSize {
		return nil, errTruncated
	}

	b := &Blob{Shaders: make([]DiskShader, count)}
	for i := range b.Shaders {
		if err := b.Shaders[i].UnmarshalBinary(data[:DiskShaderSize]); err != nil {
			return nil, err
		}
		data = data[DiskShaderSize:]
	}
	b.Data = data

	for i := range b.Shaders {
		for _, stage := range ast.Stages {
			offset, size := b.Shaders[i].Range(stage)
			if offset > uint64(len(b.Data)) || size > uint64(len(b.Data))-offset {
				return nil, fmt.Errorf("blob: shader %d %s stage out of bounds", i, stage)
			}
		}
	}
	return b, nil
}

// Source returns the text of stage for the i-th shader.
func (b *Blob) Source(i int, stage ast.Stage) string {
	offset, size := b.Shaders[i].Range(stage)
	return string(b.Data[offset : offset+size])
}
