package chunk

import (
	"bytes"
	"encoding/binary"

	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/utils"
)

type writerEntry struct {
	name    string
	payload []byte
}

// Writer accumulates named entries and lays them out as an HD_CHUNK container.
type Writer struct {
	assetType string
	entries   []writerEntry
	// payload following the descriptor table, written by sequential formats
	tail []byte
}

func NewWriter(assetType string) *Writer {
	return &Writer{assetType: assetType}
}

// Put encodes value with field and appends it as a named entry. A nil
// value declares the entry without payload.
func (w *Writer) Put(name string, field Field, value interface{}) error {
	if value == nil {
		w.entries = append(w.entries, writerEntry{name: name})
		return nil
	}
	payload, err := field.Encode(value, field.Arity)
	if err != nil {
		return hd.Wrapf(hd.KindOrDefault(err, hd.EncodingError), err, "Entry %q", name)
	}
	w.entries = append(w.entries, writerEntry{name: name, payload: payload})
	return nil
}

// SetPayload stores data that is addressed only by the root descriptor.
func (w *Writer) SetPayload(data []byte) {
	w.tail = data
}

func (w *Writer) Bytes() ([]byte, error) {
	var data bytes.Buffer
	descriptors := make([][]byte, 0, len(w.entries)+1)

	for _, e := range w.entries {
		offset := data.Len()
		data.Write(e.payload)
		d, err := descriptor(e.name, int32(len(e.payload)), int32(offset), 0, 0)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	data.Write(w.tail)

	root, err := descriptor(w.assetType, int32(data.Len()), 0, int32(len(w.entries)), 1)
	if err != nil {
		return nil, err
	}
	descriptors = append([][]byte{root}, descriptors...)

	var out bytes.Buffer
	tag, err := utils.StringToBytesBuffer(string(hd.MAGIC_CHUNK), TAG_SIZE, false)
	if err != nil {
		return nil, hd.Wrapf(hd.EncodingError, err, "Header")
	}
	out.Write(tag)
	binary.Write(&out, binary.LittleEndian, int32(len(descriptors)))
	binary.Write(&out, binary.LittleEndian, int32(data.Len()))
	for _, d := range descriptors {
		out.Write(d)
	}
	out.Write(data.Bytes())
	return out.Bytes(), nil
}

func descriptor(name string, size, offset, numSubs, subIndex int32) ([]byte, error) {
	buf, err := utils.StringToBytesBuffer(name, NAME_SIZE, true)
	if err != nil {
		return nil, hd.Wrapf(hd.EncodingError, err, "Descriptor name")
	}
	buf = append(buf, utils.AsBytes([]int32{size, offset, numSubs, subIndex})...)
	return buf, nil
}
