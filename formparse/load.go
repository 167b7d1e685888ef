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
	"context"

	"github.com/pkg/errors"

	"github.com/UNO-SOFT/formparse/views"
)

// ViewSource returns view definitions by name; nil means no such view.
type ViewSource interface {
	Fetch(ctx context.Context, name string) (*views.ViewDefinition, error)
}

// FetchError is a failure of the ViewSource, as opposed to a bad
// definition.
type FetchError struct {
	Name string
	Err  error
}

func (e *FetchError) Error() string { return "fetch " + e.Name + ": " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// LoadView fetches, resolves and parses the named view.
//
// A missing view, or one that fails to parse, is replaced by an
// auto-generated definition of tableName (the view name when empty, or
// the view's class). The parse error is returned only when no table is
// known for the fallback either.
func (P *Parser) LoadView(ctx context.Context, src ViewSource, name string, formType FormType, mode Mode, tableName string) (*ViewDescription, error) {
	log := P.log().WithContext(ctx).With("view", name)
	generate := func(cause error, tableNames ...string) (*ViewDescription, error) {
		for _, tn := range tableNames {
			if tn == "" {
				continue
			}
			if table, ok := P.registry().Get(tn); ok {
				d := P.AutoGenerate(table, formType, mode, nil)
				d.ViewName = name
				return &d, nil
			}
		}
		if cause != nil {
			return nil, cause
		}
		return nil, errors.Wrap(ErrViewNotFound, name)
	}

	if P.GeneratedForms {
		return generate(nil, tableName, name)
	}
	view, err := src.Fetch(ctx, name)
	if err != nil {
		return nil, &FetchError{Name: name, Err: err}
	}
	if view == nil {
		log.Infow("no such view, generating form", "table", firstNonEmpty(tableName, name))
		return generate(nil, tableName, name)
	}
	desc, err := P.ParseViewDefinition(view, formType, mode)
	if err != nil {
		log.Errorw("parse view, generating form", "error", err)
		return generate(err, tableName, tableNameOf(view.Class), name)
	}
	return desc, nil
}
