// Copyright 2019 Tamás Gulácsi
//
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

// Package xmlnode is a small read-only DOM over encoding/xml.
//
// Element and attribute names are lower-cased, so every lookup is
// case-insensitive: the view definitions come from a desktop application
// that was never consistent about camelCase.
package xmlnode

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Node is one XML element.
type Node struct {
	Name     string
	Attrs    []xml.Attr
	Children []*Node
	Text     string
}

// ParseString is Parse over a string.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads the first root element from r.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read")
		}
		switch st := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: strings.ToLower(st.Name.Local), Attrs: fixAttrs(st.Attr)}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			if b := bytes.TrimSpace(st); len(b) != 0 {
				n := stack[len(stack)-1]
				n.Text += string(b)
			}
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

// fixAttrs lower-cases the attribute names and keeps the last of duplicates.
func fixAttrs(attrs []xml.Attr) []xml.Attr {
	out := make([]xml.Attr, 0, len(attrs))
	seen := make(map[string]struct{}, len(attrs))
	for i := len(attrs) - 1; i >= 0; i-- {
		nm := strings.ToLower(attrs[i].Name.Local)
		if _, ok := seen[nm]; ok {
			continue
		}
		seen[nm] = struct{}{}
		out = append(out, xml.Attr{Name: xml.Name{Local: nm}, Value: attrs[i].Value})
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func findAttr(attrs []xml.Attr, name string) int {
	name = strings.ToLower(name)
	for i, a := range attrs {
		if a.Name.Local == name {
			return i
		}
	}
	return -1
}

// LookupAttr returns the trimmed attribute value and whether it was present.
func (n *Node) LookupAttr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	if i := findAttr(n.Attrs, name); i >= 0 {
		return strings.TrimSpace(n.Attrs[i].Value), true
	}
	return "", false
}

// Attr returns the trimmed value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	s, _ := n.LookupAttr(name)
	return s
}

// BoolAttr reports whether the attribute is "true", case-insensitively.
func (n *Node) BoolAttr(name string) bool {
	return strings.EqualFold(n.Attr(name), "true")
}

// IntAttr parses the attribute as an integer.
func (n *Node) IntAttr(name string) (int, bool) {
	s, ok := n.LookupAttr(name)
	if !ok || s == "" {
		return 0, false
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Child returns the first direct child with the given name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	name = strings.ToLower(name)
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the direct children with the given name.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	name = strings.ToLower(name)
	var cs []*Node
	for _, c := range n.Children {
		if c.Name == name {
			cs = append(cs, c)
		}
	}
	return cs
}
