package scene

type OutfitPart struct {
	Mesh     string
	Skin     string `yaml:",omitempty"`
	Material string `yaml:",omitempty"`
}

type Outfit struct {
	Name  string
	Parts []OutfitPart
}

// AddPart appends p unless an identical part is already listed.
func (o *Outfit) AddPart(p OutfitPart) {
	for _, e := range o.Parts {
		if e == p {
			return
		}
	}
	o.Parts = append(o.Parts, p)
}
