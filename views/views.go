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

// Package views holds the server's view definition bundles and fetches
// them over HTTP.
package views

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/UNO-SOFT/formparse/xmlnode"
)

// ViewDefinition is the bundle returned by /context/view.json.
// ViewDefs holds the raw <viewdef> XML bodies keyed by name.
type ViewDefinition struct {
	Name          string            `json:"name"`
	Class         string            `json:"class"`
	BusRules      string            `json:"busrules,omitempty"`
	Resource      string            `json:"resourcelabels,omitempty"`
	AltViews      AltViewList       `json:"altviews"`
	ViewDefs      map[string]string `json:"viewdefs"`
	ViewSetName   string            `json:"viewsetName,omitempty"`
	ViewSetLevel  string            `json:"viewsetLevel,omitempty"`
	ViewSetSource string            `json:"viewsetSource,omitempty"`
	ViewSetID     *int              `json:"viewsetId,omitempty"`
	ViewSetFile   string            `json:"viewsetFile,omitempty"`
}

// AltView points at one viewdef body for a display mode.
type AltView struct {
	Name    string   `json:"name"`
	Mode    string   `json:"mode"`
	ViewDef string   `json:"viewdef"`
	Default FlexBool `json:"default,omitempty"`
}

// AltViewList keeps the alt-views in document order; the server sends
// them as a JSON object, and the first match wins.
type AltViewList []AltView

func (l *AltViewList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var list []AltView
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, "altviews")
	}
	var list []AltView
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "altviews key")
		}
		key, _ := tok.(string)
		var av AltView
		if err := dec.Decode(&av); err != nil {
			return errors.Wrap(err, "altview "+key)
		}
		if av.Name == "" {
			av.Name = key
		}
		list = append(list, av)
	}
	*l = list
	return nil
}

// MarshalJSON writes the list back as an object keyed by name.
func (l AltViewList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, av := range l {
		if i != 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(av.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(av)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FlexBool accepts true, "true" and "TRUE" alike.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	*f = FlexBool(strings.EqualFold(s, "true"))
	return nil
}

// FromViewDefXML wraps a bare <viewdef> body into a bundle with a single
// edit-mode alt-view.
func FromViewDefXML(body string) (*ViewDefinition, error) {
	root, err := xmlnode.ParseString(body)
	if err != nil {
		return nil, errors.WithMessage(err, "parse viewdef")
	}
	if root.Name != "viewdef" {
		return nil, errors.Errorf("root element is %q, not viewdef", root.Name)
	}
	name := root.Attr("name")
	if name == "" {
		return nil, errors.New("viewdef has no name")
	}
	mode := "edit"
	if strings.EqualFold(root.Attr("type"), "formtable") {
		mode = "view"
	}
	return &ViewDefinition{
		Name:     name,
		Class:    root.Attr("class"),
		AltViews: AltViewList{{Name: name, Mode: mode, ViewDef: name, Default: true}},
		ViewDefs: map[string]string{name: body},
	}, nil
}

// LoadFile reads a view bundle (JSON) or a bare viewdef (XML) from disk.
func LoadFile(path string) (*ViewDefinition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read "+path)
	}
	return Decode(b)
}

// Decode is LoadFile over bytes.
func Decode(b []byte) (*ViewDefinition, error) {
	b = bytes.TrimSpace(b)
	if len(b) != 0 && b[0] == '<' {
		return FromViewDefXML(string(b))
	}
	var v ViewDefinition
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, errors.Wrap(err, "decode view definition")
	}
	return &v, nil
}
