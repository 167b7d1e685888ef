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

package views

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/UNO-SOFT/formparse/logger"
)

const (
	maxBodySize = 16 << 20
	// fetchTimeout bounds a shared request, which outlives its callers.
	fetchTimeout = time.Minute
)

// Fetcher gets view definitions from the server, through Cache.
type Fetcher struct {
	Client  *retryablehttp.Client
	BaseURL string
	Cache   *Cache
	Logger  *logger.Logger

	group singleflight.Group
}

// NewFetcher returns a Fetcher with a retrying client.
func NewFetcher(baseURL string, cache *Cache, log *logger.Logger) *Fetcher {
	if cache == nil {
		cache = NewCache()
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.WithComponent("fetcher")
	cl := retryablehttp.NewClient()
	cl.RetryMax = 2
	cl.Logger = leveledLogger{log}
	cl.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, nth int) {
		if nth > 0 {
			log.Infow("retry", "attempt", nth, "url", req.URL.String())
		}
	}
	return &Fetcher{
		Client:  cl,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Cache:   cache,
		Logger:  log,
	}
}

// Fetch returns the named view definition.
//
// A missing view (HTTP 404) is cached and returned as nil without error.
// HTTP 204 also yields nil, but is not cached. Concurrent calls for the
// same name share one request, which is not cancelled with any single
// caller's ctx.
func (f *Fetcher) Fetch(ctx context.Context, name string) (*ViewDefinition, error) {
	if v, ok := f.Cache.Get(name); ok {
		return v, nil
	}
	ch := f.group.DoChan(name, func() (interface{}, error) {
		if v, ok := f.Cache.Get(name); ok {
			return v, nil
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return f.fetch(ctx, name)
	})
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), name)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v, _ := res.Val.(*ViewDefinition)
		return v, nil
	}
}

func (f *Fetcher) fetch(ctx context.Context, name string) (*ViewDefinition, error) {
	URL := f.BaseURL + "/context/view.json?name=" + url.QueryEscape(name)
	resp, err := f.get(ctx, URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var v ViewDefinition
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "decode %q", URL)
		}
		f.Cache.Set(name, &v)
		return &v, nil
	case http.StatusNotFound:
		f.Logger.Debugw("no such view", "view", name)
		f.Cache.Set(name, nil)
		return nil, nil
	case http.StatusNoContent:
		return nil, nil
	}
	return nil, statusError(resp, URL)
}

// GetJSON decodes the JSON document at path (relative to BaseURL) into v.
func (f *Fetcher) GetJSON(ctx context.Context, path string, v interface{}) error {
	URL := f.BaseURL + "/" + strings.TrimPrefix(path, "/")
	resp, err := f.get(ctx, URL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp, URL)
	}
	return errors.Wrapf(
		json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(v),
		"decode %q", URL)
}

func (f *Fetcher) get(ctx context.Context, URL string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, URL)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %q", URL)
	}
	return resp, nil
}

func statusError(resp *http.Response, URL string) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	return errors.Wrapf(errors.New(resp.Status), "GET %q: %s", URL, b)
}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger.
type leveledLogger struct{ *logger.Logger }

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.Warnw(msg, kv...) }
