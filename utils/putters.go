package utils

import (
	"encoding/binary"
	"math"
)

func PutLU32(buf []byte, u uint32) {
	binary.LittleEndian.PutUint32(buf, u)
}

func PutLI32(buf []byte, i int) {
	binary.LittleEndian.PutUint32(buf, uint32(int32(i)))
}

// PutLF stores f as a little endian float32.
func PutLF(buf []byte, f float64) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f)))
}

func PutLFs(buf []byte, fs ...float64) {
	for i, f := range fs {
		PutLF(buf[i*4:], f)
	}
}
