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

// Package server exposes resolved views, generated forms and the table
// registry over HTTP.
package server

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/UNO-SOFT/formparse/formparse"
)

const (
	CodeInternal     = "INTERNAL_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeBadViewDef   = "INVALID_VIEW_DEFINITION"
	CodeUpstream     = "UPSTREAM_ERROR"
)

// Error is the JSON error body of every failed request.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	HTTPStatus int   `json:"-"`
	Err        error `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(status int, code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, HTTPStatus: status, Err: err}
}

func NotFound(msg string) *Error {
	return newError(http.StatusNotFound, CodeNotFound, msg, nil)
}

func InvalidInput(msg string) *Error {
	return newError(http.StatusBadRequest, CodeInvalidInput, msg, nil)
}

// FromError classifies err: unknown tables and views are 404, bad
// definitions 422, view source failures 502.
func FromError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var fe *formparse.FetchError
	if errors.As(err, &fe) {
		return newError(http.StatusBadGateway, CodeUpstream, "fetch view "+fe.Name, err)
	}
	switch errors.Cause(err) {
	case formparse.ErrUnknownTable, formparse.ErrViewNotFound:
		return newError(http.StatusNotFound, CodeNotFound, err.Error(), err)
	case formparse.ErrNoColumnDefinition, formparse.ErrNoClass,
		formparse.ErrNoViewDefinitions, formparse.ErrNoMatchingAltView:
		return newError(http.StatusUnprocessableEntity, CodeBadViewDef, err.Error(), err)
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return newError(http.StatusUnprocessableEntity, CodeBadViewDef, err.Error(), err)
	}
	return newError(http.StatusInternalServerError, CodeInternal, "Internal server error", err)
}
