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
	"regexp"
	"strconv"
	"strings"
)

var rePixels = regexp.MustCompile(`^(\d+)px$`)

// ProcessColumnDefinition converts a comma separated column width list
// into widths in pixels. Anything but "Npx" is auto-sized (nil).
//
// The layouts come in "col,gap,col,...,filler" form: an even-length list
// ending in p:g loses its filler, and when every odd token is a pixel gap
// only the even tokens are columns.
func ProcessColumnDefinition(s string) []*int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	tokens := strings.Split(s, ",")
	for i, t := range tokens {
		tokens[i] = strings.ToLower(strings.TrimSpace(t))
	}
	if len(tokens)%2 == 0 && tokens[len(tokens)-1] == "p:g" {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) > 1 && allGaps(tokens) {
		cols := make([]string, 0, (len(tokens)+1)/2)
		for i := 0; i < len(tokens); i += 2 {
			cols = append(cols, tokens[i])
		}
		tokens = cols
	}
	widths := make([]*int, len(tokens))
	for i, t := range tokens {
		if m := rePixels.FindStringSubmatch(t); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				widths[i] = &n
			}
		}
	}
	return widths
}

func allGaps(tokens []string) bool {
	for i := 1; i < len(tokens); i += 2 {
		if !rePixels.MatchString(tokens[i]) {
			return false
		}
	}
	return true
}

// Properties is the parsed form of an initialize="k=v;k2=v2" attribute.
type Properties map[string]string

// ParseProperties splits s on ';' then on the first '='. Keys are
// lower-cased; a key without '=' gets the empty value.
func ParseProperties(s string) Properties {
	props := make(Properties)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		props[k] = strings.TrimSpace(v)
	}
	return props
}

func (p Properties) Get(key string) string { return p[strings.ToLower(key)] }

// Bool reports whether key is "true", case-insensitively.
func (p Properties) Bool(key string) bool { return strings.EqualFold(p.Get(key), "true") }
