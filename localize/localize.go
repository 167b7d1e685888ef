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

// Package localize translates the literal label strings found in legacy
// view definitions.
package localize

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Func localizes one raw label string.
type Func func(string) string


// Dictionary maps legacy label keys to their translation.
type Dictionary map[string]string

// Localize returns the translation of s, or s itself when there is none.
func (d Dictionary) Localize(s string) string {
	if s == "" {
		return s
	}
	if v, ok := d[s]; ok {
		return v
	}
	if v, ok := d[strings.TrimSpace(s)]; ok {
		return v
	}
	return s
}

// Read decodes a flat JSON object of key -> translation.
func Read(r io.Reader) (Dictionary, error) {
	d := make(Dictionary)
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(err, "decode dictionary")
	}
	return d, nil
}

// LoadFile reads a dictionary from a file.
func LoadFile(path string) (Dictionary, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open "+path)
	}
	defer fh.Close()
	d, err := Read(fh)
	return d, errors.WithMessage(err, path)
}
