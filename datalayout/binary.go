package datalayout

import (
	"encoding/binary"
	"math"
)

// putNumeric encodes v into buf (which must be exactly sizeOfNumeric(v)
// bytes) in little-endian order, covering every type satisfying Numeric.
func putNumeric[T Numeric](buf []byte, v T) {
	switch x := any(v).(type) {
	case int8:
		buf[0] = byte(x)
	case uint8:
		buf[0] = x
	case int16:
		binary.LittleEndian.PutUint16(buf, uint16(x))
	case uint16:
		binary.LittleEndian.PutUint16(buf, x)
	case int32:
		binary.LittleEndian.PutUint32(buf, uint32(x))
	case uint32:
		binary.LittleEndian.PutUint32(buf, x)
	case float32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
	case int64:
		binary.LittleEndian.PutUint64(buf, uint64(x))
	case uint64:
		binary.LittleEndian.PutUint64(buf, x)
	case float64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(x))
	}
}

// getNumeric decodes a T from buf, the little-endian inverse of putNumeric.
func getNumeric[T Numeric](buf []byte) T {
	var zero T
	switch any(zero).(type) {
	case int8:
		return any(int8(buf[0])).(T)
	case uint8:
		return any(buf[0]).(T)
	case int16:
		return any(int16(binary.LittleEndian.Uint16(buf))).(T)
	case uint16:
		return any(binary.LittleEndian.Uint16(buf)).(T)
	case int32:
		return any(int32(binary.LittleEndian.Uint32(buf))).(T)
	case uint32:
		return any(binary.LittleEndian.Uint32(buf)).(T)
	case float32:
		return any(math.Float32frombits(binary.LittleEndian.Uint32(buf))).(T)
	case int64:
		return any(int64(binary.LittleEndian.Uint64(buf))).(T)
	case uint64:
		return any(binary.LittleEndian.Uint64(buf)).(T)
	case float64:
		return any(math.Float64frombits(binary.LittleEndian.Uint64(buf))).(T)
	default:
		return zero
	}
}

// binaryField is implemented by every Field to move its value to and
// from the fixed/variable byte regions of a mapped record.
type binaryField interface {
	Field
	writeFixed(buf []byte)
	readFixed(buf []byte)
	writeVariable() []byte
	readVariable(buf []byte)
}

func (p *DataPieceValue[T]) writeFixed(buf []byte) { putNumeric(buf, p.value) }
func (p *DataPieceValue[T]) readFixed(buf []byte)  { p.value = getNumeric[T](buf); p.setAvailable(true) }
func (p *DataPieceValue[T]) writeVariable() []byte { return nil }
func (p *DataPieceValue[T]) readVariable([]byte)   {}

func (p *DataPieceArray[T]) writeFixed(buf []byte) {
	if len(p.values) == 0 {
		return
	}
	elemSize := sizeOfNumeric(p.values[0])
	for i, v := range p.values {
		putNumeric(buf[i*elemSize:(i+1)*elemSize], v)
	}
}
func (p *DataPieceArray[T]) readFixed(buf []byte) {
	var zero T
	elemSize := sizeOfNumeric(zero)
	for i := range p.values {
		p.values[i] = getNumeric[T](buf[i*elemSize : (i+1)*elemSize])
	}
	p.setAvailable(true)
}
func (p *DataPieceArray[T]) writeVariable() []byte { return nil }
func (p *DataPieceArray[T]) readVariable([]byte)   {}

func (p *DataPieceVector[T]) writeFixed([]byte) {}
func (p *DataPieceVector[T]) readFixed([]byte)  {}
func (p *DataPieceVector[T]) writeVariable() []byte {
	var zero T
	elemSize := sizeOfNumeric(zero)
	buf := make([]byte, len(p.values)*elemSize)
	for i, v := range p.values {
		putNumeric(buf[i*elemSize:(i+1)*elemSize], v)
	}
	return buf
}
func (p *DataPieceVector[T]) readVariable(buf []byte) {
	var zero T
	elemSize := sizeOfNumeric(zero)
	if elemSize == 0 || len(buf)%elemSize != 0 {
		return
	}
	n := len(buf) / elemSize
	p.values = make([]T, n)
	for i := 0; i < n; i++ {
		p.values[i] = getNumeric[T](buf[i*elemSize : (i+1)*elemSize])
	}
	p.setAvailable(true)
}

func (p *DataPieceString) writeFixed([]byte)     {}
func (p *DataPieceString) readFixed([]byte)      {}
func (p *DataPieceString) writeVariable() []byte { return []byte(p.value) }
func (p *DataPieceString) readVariable(buf []byte) {
	p.value = string(buf)
	p.setAvailable(true)
}

func (p *DataPieceStringMap[T]) writeFixed([]byte) {}
func (p *DataPieceStringMap[T]) readFixed([]byte)  {}
func (p *DataPieceStringMap[T]) writeVariable() []byte {
	var zero T
	elemSize := sizeOfNumeric(zero)
	buf := make([]byte, 0)
	for k, v := range p.values {
		klen := make([]byte, 4)
		binary.LittleEndian.PutUint32(klen, uint32(len(k)))
		buf = append(buf, klen...)
		buf = append(buf, []byte(k)...)
		vbuf := make([]byte, elemSize)
		putNumeric(vbuf, v)
		buf = append(buf, vbuf...)
	}
	return buf
}
func (p *DataPieceStringMap[T]) readVariable(buf []byte) {
	var zero T
	elemSize := sizeOfNumeric(zero)
	m := map[string]T{}
	for len(buf) >= 4 {
		klen := int(binary.LittleEndian.Uint32(buf))
		buf = buf[4:]
		if klen > len(buf) {
			break
		}
		key := string(buf[:klen])
		buf = buf[klen:]
		if elemSize > len(buf) {
			break
		}
		m[key] = getNumeric[T](buf[:elemSize])
		buf = buf[elemSize:]
	}
	p.values = m
	p.setAvailable(true)
}
