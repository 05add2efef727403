package txt

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/mogaika/haydee_tools/hd"
)

// Node is one statement of a text container. Statements followed by a
// brace block own the statements of that block.
type Node struct {
	Key      string
	Args     []string
	Line     int
	Depth    int
	Children []*Node

	block bool
}

type Document struct {
	Version string
	Nodes   []*Node
}

// Parse decodes and tokenizes a HD_DATA_TXT file into a statement tree.
func Parse(data []byte) (*Document, error) {
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	root := &Node{Depth: -1, block: true}
	stack := []*Node{root}
	var current *Node
	var last *Node

	finish := func() {
		if current != nil {
			last = current
			current = nil
		}
	}

	for itok, err, eos := scanner.Next(); !eos; itok, err, eos = scanner.Next() {
		if err != nil {
			if ui, ok := err.(*machines.UnconsumedInput); ok {
				return nil, hd.Errorf(hd.StructuralMismatch, "Unexpected input on line %d: %q",
					ui.FailLine, string(ui.Text[ui.StartTC:ui.FailTC]))
			}
			return nil, hd.Wrapf(hd.StructuralMismatch, err, "Failed to parse token")
		}
		tok := itok.(*lexmachine.Token)
		top := stack[len(stack)-1]

		switch tok.Type {
		case TOKEN_WORD, TOKEN_STRING:
			value := string(tok.Lexeme)
			if tok.Type == TOKEN_STRING {
				value = value[1 : len(value)-1]
			}
			if current == nil {
				current = &Node{Key: value, Line: tok.StartLine, Depth: len(stack) - 1}
				top.Children = append(top.Children, current)
			} else {
				current.Args = append(current.Args, value)
			}
		case TOKEN_END, TOKEN_NEWLINE:
			finish()
		case TOKEN_OPEN:
			finish()
			owner := last
			if owner == nil || owner.block || owner.Depth != len(stack)-1 {
				owner = &Node{Line: tok.StartLine, Depth: len(stack) - 1}
				top.Children = append(top.Children, owner)
			}
			owner.block = true
			stack = append(stack, owner)
			last = nil
		case TOKEN_CLOSE:
			finish()
			if len(stack) == 1 {
				return nil, hd.Errorf(hd.StructuralMismatch, "Unbalanced '}' on line %d", tok.StartLine)
			}
			last = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 1 {
		return nil, hd.Errorf(hd.StructuralMismatch, "Block %q opened on line %d is not closed",
			stack[len(stack)-1].Key, stack[len(stack)-1].Line)
	}

	doc := &Document{}
	nodes := root.Children
	if len(nodes) == 0 || nodes[0].Key != string(hd.MAGIC_TEXT) {
		return nil, hd.Errorf(hd.UnrecognizedSignature, "Missing %s header", hd.MAGIC_TEXT)
	}
	if len(nodes[0].Args) > 0 {
		doc.Version = nodes[0].Args[0]
	}
	doc.Nodes = nodes[1:]
	return doc, nil
}

// Find returns the first top level statement with key.
func (d *Document) Find(key string) *Node {
	for _, n := range d.Nodes {
		if n.Key == key {
			return n
		}
	}
	return nil
}

// Walk visits every statement depth first, parents before children.
func (d *Document) Walk(f func(n *Node)) {
	for _, n := range d.Nodes {
		n.Walk(f)
	}
}

func (n *Node) Walk(f func(n *Node)) {
	f(n)
	for _, c := range n.Children {
		c.Walk(f)
	}
}

func (n *Node) Child(key string) *Node {
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

func (n *Node) ChildrenByKey(key string) []*Node {
	result := make([]*Node, 0)
	for _, c := range n.Children {
		if c.Key == key {
			result = append(result, c)
		}
	}
	return result
}

func (n *Node) String() string {
	if len(n.Args) == 0 {
		return n.Key
	}
	return n.Key + " " + strings.Join(n.Args, " ")
}

// Record names the statement for diagnostics.
func (n *Node) Record() string {
	return n.Key + " (line " + strconv.Itoa(n.Line) + ")"
}

func (n *Node) Arg(i int) (string, error) {
	if i >= len(n.Args) {
		return "", hd.Errorf(hd.ArityMismatch, "%s: argument %d missing", n.Record(), i+1)
	}
	return n.Args[i], nil
}

func (n *Node) Int(i int) (int, error) {
	s, err := n.Arg(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, hd.Wrapf(hd.StructuralMismatch, err, "%s: argument %d", n.Record(), i+1)
	}
	return v, nil
}

func (n *Node) Float(i int) (float64, error) {
	s, err := n.Arg(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, hd.Wrapf(hd.StructuralMismatch, err, "%s: argument %d", n.Record(), i+1)
	}
	return v, nil
}

// Floats reads arity numbers starting at the first argument. Extra
// arguments are ignored.
func (n *Node) Floats(arity int) ([]float64, error) {
	if len(n.Args) < arity {
		return nil, hd.Errorf(hd.ArityMismatch, "%s: %d values, expected %d", n.Record(), len(n.Args), arity)
	}
	out := make([]float64, arity)
	for i := range out {
		v, err := n.Float(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Ints reads every argument as an integer.
func (n *Node) Ints() ([]int, error) {
	out := make([]int, len(n.Args))
	for i := range out {
		v, err := n.Int(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Value returns the argument of a `key value;` child.
func (n *Node) Value(key string) (*Node, error) {
	c := n.Child(key)
	if c == nil {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "%s: %q missing", n.Record(), key)
	}
	return c, nil
}
