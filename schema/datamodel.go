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

package schema

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// DataModelTable is one entry of the server's datamodel.json.
type DataModelTable struct {
	ClassName     string                  `json:"classname"`
	Table         string                  `json:"table"`
	TableID       int                     `json:"tableId"`
	IDFieldName   string                  `json:"idFieldName"`
	Fields        []DataModelField        `json:"fields"`
	Relationships []DataModelRelationship `json:"relationships"`
}

type DataModelField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Length     int    `json:"length"`
	IsRequired bool   `json:"isRequired"`
	ReadOnly   bool   `json:"readOnly"`
	Virtual    bool   `json:"virtual"`
}

type DataModelRelationship struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Required         bool   `json:"required"`
	Dependent        bool   `json:"dependent"`
	RelatedModelName string `json:"relatedModelName"`
	OtherSideName    string `json:"otherSideName"`
}

// Localization is schema_localization.json: lower-cased table name to
// its localized strings.
type Localization map[string]TableLocalization

type TableLocalization struct {
	Name     string                      `json:"name"`
	Desc     string                      `json:"desc"`
	IsHidden bool                        `json:"ishidden"`
	Items    map[string]ItemLocalization `json:"items"`
}

type ItemLocalization struct {
	Name         string  `json:"name"`
	Desc         string  `json:"desc"`
	IsHidden     bool    `json:"ishidden"`
	IsRequired   bool    `json:"isrequired"`
	PickListName *string `json:"picklistname"`
}

// ReadDataModel decodes a datamodel.json stream.
func ReadDataModel(r io.Reader) ([]DataModelTable, error) {
	var tables []DataModelTable
	if err := json.NewDecoder(r).Decode(&tables); err != nil {
		return nil, errors.Wrap(err, "decode datamodel")
	}
	return tables, nil
}

// ReadLocalization decodes a schema_localization.json stream.
func ReadLocalization(r io.Reader) (Localization, error) {
	var loc Localization
	if err := json.NewDecoder(r).Decode(&loc); err != nil {
		return nil, errors.Wrap(err, "decode schema localization")
	}
	return loc, nil
}

// LoadFiles builds a registry from a datamodel file and an optional
// localization file.
func LoadFiles(dataModelPath, localizationPath string) (*Registry, error) {
	fh, err := os.Open(dataModelPath)
	if err != nil {
		return nil, errors.Wrap(err, "open "+dataModelPath)
	}
	defer fh.Close()
	tables, err := ReadDataModel(fh)
	if err != nil {
		return nil, errors.WithMessage(err, dataModelPath)
	}
	var loc Localization
	if localizationPath != "" {
		lh, err := os.Open(localizationPath)
		if err != nil {
			return nil, errors.Wrap(err, "open "+localizationPath)
		}
		defer lh.Close()
		if loc, err = ReadLocalization(lh); err != nil {
			return nil, errors.WithMessage(err, localizationPath)
		}
	}
	r := NewRegistry()
	r.AddDataModel(tables, loc)
	return r, nil
}

// AddDataModel registers every table, merging labels, descriptions,
// hidden flags and pick lists from loc (which may be nil).
func (r *Registry) AddDataModel(tables []DataModelTable, loc Localization) {
	for _, dt := range tables {
		name := dt.ClassName[strings.LastIndexByte(dt.ClassName, '.')+1:]
		if name == "" {
			name = dt.Table
		}
		tl := loc[strings.ToLower(name)]
		t := &Table{
			Name:        name,
			Label:       firstNonEmpty(tl.Name, name),
			ClassName:   dt.ClassName,
			IDFieldName: dt.IDFieldName,
			Description: tl.Desc,
		}
		for _, df := range dt.Fields {
			item := tl.Items[strings.ToLower(df.Name)]
			f := Field{
				Name: df.Name, Label: firstNonEmpty(item.Name, df.Name),
				Description: item.Desc, Type: df.Type, Length: df.Length,
				Required: df.IsRequired || item.IsRequired,
				Hidden:   item.IsHidden, ReadOnly: df.ReadOnly, Virtual: df.Virtual,
			}
			if item.PickListName != nil {
				f.PickList = *item.PickListName
			}
			t.Fields = append(t.Fields, f)
		}
		for _, dr := range dt.Relationships {
			item := tl.Items[strings.ToLower(dr.Name)]
			t.Relationships = append(t.Relationships, Field{
				Name: dr.Name, Label: firstNonEmpty(item.Name, dr.Name),
				Description: item.Desc, Required: dr.Required || item.IsRequired,
				Hidden: item.IsHidden, IsRelationship: true,
				RelationshipType: RelationshipType(dr.Type),
				RelatedTable:     dr.RelatedModelName,
				OtherSideName:    dr.OtherSideName,
				Dependent:        dr.Dependent,
			})
		}
		r.Register(t)
	}
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
