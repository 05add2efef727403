package chunk

import (
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils"
)

const (
	TAG_SIZE        = 20
	HEADER_SIZE     = TAG_SIZE + 8
	DESCRIPTOR_SIZE = 48
	NAME_SIZE       = 32
)

// Entry is one descriptor of the container.
type Entry struct {
	Name     string
	Size     int32
	Offset   int32
	NumSubs  int32
	SubIndex int32
	HasValue bool

	raw *utils.BufStack
}

// Raw returns the payload bytes of the entry, nil when it has no value.
func (e *Entry) Raw() []byte {
	if !e.HasValue || e.raw == nil {
		return nil
	}
	return e.raw.Raw()
}

type Container struct {
	Tag       string
	TotalSize int32
	// name of descriptor 0
	AssetType string
	Entries   []*Entry

	root *utils.BufStack
	data *utils.BufStack
}

func (c *Container) Entry(name string) *Entry {
	for _, e := range c.Entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Data is the region following the descriptor table.
func (c *Container) Data() *utils.BufStack {
	return c.data
}

func (c *Container) StringTree() string {
	return c.root.StringTree()
}

// Expect fails with a structural mismatch unless the container declares assetType.
func (c *Container) Expect(assetType string) error {
	if c.AssetType != assetType {
		return hd.Errorf(hd.StructuralMismatch, "Asset type %q, expected %q", c.AssetType, assetType)
	}
	return nil
}

// Read parses the header and descriptor table of an HD_CHUNK buffer.
func Read(data []byte) (*Container, error) {
	sig, err := hd.DetectSignature(data)
	if err != nil {
		return nil, err
	}
	if sig != hd.SignatureChunk {
		return nil, hd.Errorf(hd.StructuralMismatch, "Signature %v is not a chunk container", sig)
	}
	if len(data) < HEADER_SIZE+DESCRIPTOR_SIZE {
		return nil, hd.Errorf(hd.StructuralMismatch, "Container too short: %d bytes", len(data))
	}

	root := utils.NewBufStack("file", data)
	header := root.SubBuf("header", 0, HEADER_SIZE)

	c := &Container{
		Tag:     utils.BytesToString(header.Read(TAG_SIZE)),
		root:    root,
		Entries: make([]*Entry, 0),
	}
	count := int(header.ReadLI32())
	c.TotalSize = header.ReadLI32()

	if count < 1 || HEADER_SIZE+count*DESCRIPTOR_SIZE > len(data) {
		return nil, hd.Errorf(hd.StructuralMismatch, "Descriptor count %d does not fit into %d bytes", count, len(data))
	}

	table := root.SubBuf("descriptors", HEADER_SIZE, count*DESCRIPTOR_SIZE)
	dataOffset := HEADER_SIZE + count*DESCRIPTOR_SIZE
	c.data = root.SubBuf("data", dataOffset, len(data)-dataOffset)

	for i := 0; i < count; i++ {
		e := &Entry{
			Name:     utils.BytesToString(table.Read(NAME_SIZE)),
			Size:     table.ReadLI32(),
			Offset:   table.ReadLI32(),
			NumSubs:  table.ReadLI32(),
			SubIndex: table.ReadLI32(),
		}
		e.HasValue = e.Size > 0

		if i == 0 {
			c.AssetType = e.Name
			continue
		}
		if e.HasValue {
			e.raw = c.data.SubBuf("entry", int(e.Offset), int(e.Size)).SetName(e.Name)
		}
		c.Entries = append(c.Entries, e)
	}
	if err := table.Err(); err != nil {
		return nil, hd.Wrapf(hd.StructuralMismatch, err, "Broken descriptor table")
	}

	return c, nil
}

// Decode runs every valued entry through the field table of schema.
// Unknown names and broken payloads become diagnostics and are skipped.
func (c *Container) Decode(schema Schema, diags *scene.Diagnostics) *Values {
	v := &Values{values: make(map[string]interface{}), entries: make(map[string]*Entry)}

	for _, e := range c.Entries {
		field, known := schema[e.Name]
		if !known {
			diags.Warnf(e.Name, "unknown chunk entry ignored")
			continue
		}
		v.entries[e.Name] = e
		if !e.HasValue {
			continue
		}
		if err := e.raw.Err(); err != nil {
			diags.Add(hd.StructuralMismatch, e.Name, "%v", err)
			continue
		}

		value, err := field.Decode(e.Raw(), field.Arity)
		if err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), e.Name, "%v", err)
			continue
		}
		v.values[e.Name] = value
	}
	return v
}
