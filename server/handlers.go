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

package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/UNO-SOFT/formparse/formparse"
	"github.com/UNO-SOFT/formparse/views"
)

const maxBodySize = 4 << 20

// Handler serves the form definitions.
type Handler struct {
	parser *formparse.Parser
	source formparse.ViewSource
	cache  *views.Cache
}

func NewHandler(parser *formparse.Parser, source formparse.ViewSource, cache *views.Cache) *Handler {
	return &Handler{parser: parser, source: source, cache: cache}
}

// Live handles the liveness probe.
// GET /health/live
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// formParams reads the type and mode query parameters; form and edit
// are the defaults.
func formParams(c *gin.Context) (formparse.FormType, formparse.Mode, error) {
	formType, mode := formparse.FormTypeForm, formparse.ModeEdit
	if s := c.Query("type"); s != "" {
		var ok bool
		if formType, ok = formparse.ParseFormType(s); !ok {
			return formType, mode, InvalidInput("unknown form type " + s).WithDetail("type", s)
		}
	}
	if s := c.Query("mode"); s != "" {
		var ok bool
		if mode, ok = formparse.ParseMode(s); !ok {
			return formType, mode, InvalidInput("unknown mode " + s).WithDetail("mode", s)
		}
	}
	return formType, mode, nil
}

// GetView returns the resolved, parsed view, or a generated one.
// GET /api/v1/views/:name?type=&mode=&table=
func (h *Handler) GetView(c *gin.Context) {
	formType, mode, err := formParams(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	desc, err := h.parser.LoadView(c.Request.Context(), h.source, c.Param("name"), formType, mode, c.Query("table"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, desc)
}

// ListViews returns the names of the views fetched so far.
// GET /api/v1/views
func (h *Handler) ListViews(c *gin.Context) {
	names := []string{}
	if h.cache != nil {
		names = h.cache.Names()
	}
	c.JSON(http.StatusOK, gin.H{"views": names})
}

// ListTables returns every table of the registry.
// GET /api/v1/tables
func (h *Handler) ListTables(c *gin.Context) {
	c.JSON(http.StatusOK, h.parser.Tables.List())
}

// GetTable returns one table.
// GET /api/v1/tables/:name
func (h *Handler) GetTable(c *gin.Context) {
	name := c.Param("name")
	if t, ok := h.parser.Tables.Get(name); ok {
		c.JSON(http.StatusOK, t)
		return
	}
	_ = c.Error(NotFound("unknown table " + name).WithDetail("table", name))
}

// TableForm returns the generated form of a table.
// GET /api/v1/tables/:name/form?type=&mode=&fields=a,b
func (h *Handler) TableForm(c *gin.Context) {
	name := c.Param("name")
	t, ok := h.parser.Tables.Get(name)
	if !ok {
		_ = c.Error(NotFound("unknown table " + name).WithDetail("table", name))
		return
	}
	formType, mode, err := formParams(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var fields []string
	if s := c.Query("fields"); s != "" {
		fields = strings.Split(s, ",")
	}
	c.JSON(http.StatusOK, h.parser.AutoGenerate(t, formType, mode, fields))
}

// Parse parses the posted view (bundle JSON or bare viewdef XML).
// POST /api/v1/parse?type=&mode=
func (h *Handler) Parse(c *gin.Context) {
	formType, mode, err := formParams(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	b, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		_ = c.Error(InvalidInput("read body"))
		return
	}
	view, err := views.Decode(b)
	if err != nil {
		_ = c.Error(newError(http.StatusUnprocessableEntity, CodeBadViewDef, err.Error(), err))
		return
	}
	if t := c.Query("table"); t != "" && view.Class == "" {
		view.Class = t
	}
	desc, err := h.parser.ParseViewDefinition(view, formType, mode)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, desc)
}
