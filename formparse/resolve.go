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

package formparse

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/UNO-SOFT/formparse/schema"
	"github.com/UNO-SOFT/formparse/views"
	"github.com/UNO-SOFT/formparse/xmlnode"
)

// ResolvedView is the viewdef element chosen for a form type and mode.
type ResolvedView struct {
	Element  *xmlnode.Node
	ViewDef  string
	AltView  views.AltView
	FormType FormType
	Mode     Mode
	Table    *schema.Table
}

// ResolveView picks the alt-view of view to display as formType in mode.
//
// Alt-views of the requested mode are preferred (all of them, if none
// has that mode), and among those the first whose viewdef has the
// requested type. Without such an alt-view the first candidate is used,
// unless StrictFormType is set. One level of <definition> indirection is
// followed.
func (P *Parser) ResolveView(view *views.ViewDefinition, formType FormType, mode Mode) (*ResolvedView, error) {
	if view == nil || len(view.ViewDefs) == 0 {
		name := ""
		if view != nil {
			name = view.Name
		}
		return nil, errors.Wrap(ErrNoViewDefinitions, name)
	}
	log := P.log().With("view", view.Name)

	parsed := make(map[string]*xmlnode.Node)
	parse := func(name string) (*xmlnode.Node, error) {
		if n, ok := parsed[name]; ok {
			return n, nil
		}
		body, ok := view.ViewDefs[name]
		if !ok {
			return nil, errors.Errorf("%s: no viewdef %q", view.Name, name)
		}
		n, err := xmlnode.ParseString(body)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s: viewdef %q", view.Name, name)
		}
		parsed[name] = n
		return n, nil
	}

	candidates := altViewCandidates(view, mode)
	var chosen views.AltView
	var node *xmlnode.Node
	for _, av := range candidates {
		n, err := parse(av.ViewDef)
		if err != nil {
			log.Warnw("skip altView", "altView", av.Name, "error", err)
			continue
		}
		if strings.EqualFold(n.Attr("type"), string(formType)) {
			chosen, node = av, n
			break
		}
	}
	if node == nil {
		if P.StrictFormType {
			return nil, errors.Wrapf(ErrNoMatchingAltView, "%s: %s", view.Name, formType)
		}
		log.Warnw("no altView for formType", "formType", formType, "mode", mode)
		chosen = candidates[0]
		var err error
		if node, err = parse(chosen.ViewDef); err != nil {
			return nil, err
		}
	}

	rv := &ResolvedView{Element: node, ViewDef: chosen.ViewDef, AltView: chosen, FormType: FormTypeForm, Mode: mode}
	if d := node.Child("definition"); d != nil {
		if name := strings.TrimSpace(d.Text); name != "" {
			elem, err := parse(name)
			if err != nil {
				return nil, errors.WithMessage(err, "definition")
			}
			rv.Element, rv.ViewDef = elem, name
		}
	}

	class := firstNonEmpty(node.Attr("class"), view.Class)
	if class == "" {
		return nil, errors.Wrap(ErrNoClass, view.Name)
	}
	table, ok := P.registry().Get(tableNameOf(class))
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTable, "%s: %s", view.Name, class)
	}
	rv.Table = table

	if strings.EqualFold(node.Attr("type"), "formtable") {
		rv.FormType = FormTypeTable
	}
	if mode != ModeSearch {
		if m, ok := ParseMode(chosen.Mode); ok {
			rv.Mode = m
		}
	}
	return rv, nil
}

func altViewCandidates(view *views.ViewDefinition, mode Mode) []views.AltView {
	var candidates []views.AltView
	for _, av := range view.AltViews {
		if strings.EqualFold(av.Mode, string(mode)) {
			candidates = append(candidates, av)
		}
	}
	if len(candidates) != 0 {
		return candidates
	}
	if len(view.AltViews) != 0 {
		return view.AltViews
	}
	names := make([]string, 0, len(view.ViewDefs))
	for k := range view.ViewDefs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		candidates = append(candidates, views.AltView{Name: k, ViewDef: k, Mode: string(mode)})
	}
	return candidates
}

// ParseViewDefinition resolves and parses view.
func (P *Parser) ParseViewDefinition(view *views.ViewDefinition, formType FormType, mode Mode) (*ViewDescription, error) {
	rv, err := P.ResolveView(view, formType, mode)
	if err != nil {
		return nil, err
	}
	defs, err := P.ParseConditionalDefinitions(rv.Element, rv.Table)
	if err != nil {
		return nil, errors.WithMessage(err, view.Name)
	}
	desc := &ViewDescription{
		FormType:  rv.FormType,
		Mode:      rv.Mode,
		Table:     rv.Table.Name,
		ViewName:  view.Name,
		ViewSetID: view.ViewSetID,
	}
	def := mainDefinition(defs)
	if rv.FormType == FormTypeTable {
		desc.ParsedFormDefinition = flattenFormTable(def)
		return desc, nil
	}
	desc.ParsedFormDefinition = def
	if len(defs) > 1 {
		desc.Conditional = defs
	}
	return desc, nil
}

func mainDefinition(defs []ConditionalFormDefinition) ParsedFormDefinition {
	for _, d := range defs {
		if d.Condition == nil {
			return d.Definition
		}
	}
	return defs[0].Definition
}
