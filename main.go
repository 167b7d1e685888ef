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

package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/UNO-SOFT/formparse/formparse"
	"github.com/UNO-SOFT/formparse/localize"
	"github.com/UNO-SOFT/formparse/logger"
	"github.com/UNO-SOFT/formparse/schema"
	"github.com/UNO-SOFT/formparse/server"
	"github.com/UNO-SOFT/formparse/views"
)

func main() {
	if err := Main(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func Main() error {
	var concurrency = 4
	app := kingpin.New("formparse", "Specify view definitions to renderer-agnostic form grids")
	baseURL := app.Flag("url", "server base URL").Envar("FORMPARSE_URL").String()
	dataModel := app.Flag("datamodel", "datamodel.json file (instead of fetching from --url)").Envar("FORMPARSE_DATAMODEL").String()
	schemaLoc := app.Flag("schema-localization", "schema_localization.json file").String()
	dictionary := app.Flag("dictionary", "legacy label dictionary (JSON object)").String()
	logLevel := app.Flag("log-level", "log level").Default("info").Envar("LOG_LEVEL").String()
	appEnv := app.Flag("env", "application environment").Default("production").Envar("APP_ENV").String()
	generatedForms := app.Flag("generated-forms", "always auto-generate forms").Bool()
	strictFormType := app.Flag("strict-form-type", "fail when no alt-view has the requested form type").Bool()

	var formType, mode, tableName string
	formFlags := func(cmd *kingpin.CmdClause) {
		cmd.Flag("type", "form type (form, formTable)").Default("form").StringVar(&formType)
		cmd.Flag("mode", "mode (edit, view, search)").Default("edit").StringVar(&mode)
	}

	cmdParse := app.Command("parse", "parse a view bundle (JSON) or a bare viewdef (XML)").Default()
	parseSrc := cmdParse.Arg("src", "source file").String()
	parseDst := cmdParse.Arg("dst", "destination file").String()
	cmdParse.Flag("table", "table of a viewdef without class").StringVar(&tableName)
	formFlags(cmdParse)

	cmdView := app.Command("view", "fetch, resolve and parse a view from the server")
	viewName := cmdView.Arg("name", "view name").Required().String()
	cmdView.Flag("table", "table to generate a form for when the view is missing").StringVar(&tableName)
	formFlags(cmdView)

	cmdAutogen := app.Command("autogen", "auto-generate the form of a table")
	autogenTable := cmdAutogen.Arg("table", "table name").Required().String()
	autogenFields := cmdAutogen.Flag("fields", "comma separated fields to show").String()
	formFlags(cmdAutogen)

	cmdServe := app.Command("serve", "serve the form definitions over HTTP")
	serveAddress := cmdServe.Arg("address", "address to listen on").Default(":8080").String()

	var watchSrc, watchDst string
	suffix := ".json"
	cmdWatch := app.Command("watch", "watch a directory and parse all appearing views")
	cmdWatch.Arg("src", "source path to watch").Required().ExistingDirVar(&watchSrc)
	cmdWatch.Arg("dst", "destination path").Required().ExistingDirVar(&watchDst)
	cmdWatch.Flag("suffix", "suffix of parsed files").Default(suffix).StringVar(&suffix)
	cmdWatch.Flag("concurrency", "maximum number of parses running in parallel").Default(strconv.Itoa(concurrency)).IntVar(&concurrency)
	watchServeAddress := cmdWatch.Flag("http", "HTTP address to listen on").String()
	formFlags(cmdWatch)

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	lgr, err := logger.New(logger.Config{Level: *logLevel, Development: *appEnv == "development"})
	if err != nil {
		return errors.Wrap(err, "logger")
	}
	defer lgr.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	go func() {
		<-sigCh
		cancel()
		time.Sleep(time.Second)
		os.Exit(1)
	}()
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	ctx = logger.WithLogger(ctx, lgr)

	var fetcher *views.Fetcher
	if *baseURL != "" {
		fetcher = views.NewFetcher(*baseURL, views.NewCache(), lgr)
	}
	tables, err := loadRegistry(ctx, fetcher, *dataModel, *schemaLoc)
	if err != nil {
		return err
	}
	P := &formparse.Parser{
		Tables:         tables,
		Logger:         lgr.WithComponent("formparse"),
		StrictFormType: *strictFormType,
		GeneratedForms: *generatedForms,
	}
	if *dictionary != "" {
		d, err := localize.LoadFile(*dictionary)
		if err != nil {
			return err
		}
		P.Localize = d.Localize
	}

	ft, ok := formparse.ParseFormType(formType)
	if !ok {
		return errors.Errorf("unknown form type %q", formType)
	}
	md, ok := formparse.ParseMode(mode)
	if !ok {
		return errors.Errorf("unknown mode %q", mode)
	}

	switch cmd {
	case cmdParse.FullCommand():
		return parseFile(P, *parseDst, *parseSrc, tableName, ft, md)

	case cmdView.FullCommand():
		if fetcher == nil {
			return errors.New("--url is required")
		}
		desc, err := P.LoadView(ctx, fetcher, *viewName, ft, md, tableName)
		if err != nil {
			return err
		}
		return writeJSON("", desc)

	case cmdAutogen.FullCommand():
		t, ok := tables.Get(*autogenTable)
		if !ok {
			return errors.Wrap(formparse.ErrUnknownTable, *autogenTable)
		}
		var fields []string
		if *autogenFields != "" {
			fields = strings.Split(*autogenFields, ",")
		}
		return writeJSON("", P.AutoGenerate(t, ft, md, fields))

	case cmdServe.FullCommand():
		return server.ListenAndServe(ctx, *serveAddress, newRouter(P, fetcher, lgr, *appEnv), lgr)

	case cmdWatch.FullCommand():
		grp, ctx := errgroup.WithContext(ctx)
		if *watchServeAddress != "" {
			grp.Go(func() error {
				return server.ListenAndServe(ctx, *watchServeAddress, newRouter(P, fetcher, lgr, *appEnv), lgr)
			})
		}
		grp.Go(func() error {
			return watchParse(ctx, P, watchDst, watchSrc, suffix, ft, md, concurrency)
		})
		return grp.Wait()
	}
	return nil
}

func newRouter(P *formparse.Parser, fetcher *views.Fetcher, lgr *logger.Logger, appEnv string) http.Handler {
	var src formparse.ViewSource = missingSource{}
	var cache *views.Cache
	if fetcher != nil {
		src, cache = fetcher, fetcher.Cache
	}
	return server.NewRouter(server.Config{
		Parser: P, Source: src, Logger: lgr, Cache: cache,
		Development: appEnv == "development",
	})
}

// missingSource has no views at all, so every view is generated.
type missingSource struct{}

func (missingSource) Fetch(context.Context, string) (*views.ViewDefinition, error) { return nil, nil }

// loadRegistry reads the data model from files, or from the server.
func loadRegistry(ctx context.Context, fetcher *views.Fetcher, dataModel, schemaLoc string) (*schema.Registry, error) {
	if dataModel != "" {
		return schema.LoadFiles(dataModel, schemaLoc)
	}
	reg := schema.NewRegistry()
	if fetcher == nil {
		logger.Warn(ctx, "no data model, every field reference will be unsupported")
		return reg, nil
	}
	var tables []schema.DataModelTable
	if err := fetcher.GetJSON(ctx, "/context/datamodel.json", &tables); err != nil {
		return nil, errors.WithMessage(err, "datamodel")
	}
	var loc schema.Localization
	if err := fetcher.GetJSON(ctx, "/context/schema_localization.json", &loc); err != nil {
		logger.Warn(ctx, "schema localization", "error", err)
	}
	reg.AddDataModel(tables, loc)
	return reg, nil
}

func parseFile(P *formparse.Parser, dst, src, tableName string, formType formparse.FormType, mode formparse.Mode) error {
	inp := os.Stdin
	if !(src == "" || src == "-") {
		var err error
		if inp, err = os.Open(src); err != nil {
			return errors.Wrap(err, "open "+src)
		}
	}
	defer inp.Close()
	b, err := io.ReadAll(inp)
	if err != nil {
		return errors.Wrap(err, "read "+src)
	}
	view, err := views.Decode(b)
	if err != nil {
		return errors.WithMessage(err, src)
	}
	if view.Class == "" {
		view.Class = tableName
	}
	desc, err := P.ParseViewDefinition(view, formType, mode)
	if err != nil {
		return errors.WithMessage(err, src)
	}
	return writeJSON(dst, desc)
}

func writeJSON(dst string, v interface{}) error {
	out := os.Stdout
	if !(dst == "" || dst == "-") {
		var err error
		if out, err = os.Create(dst); err != nil {
			return errors.Wrap(err, "create "+dst)
		}
		defer out.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode")
	}
	if out == os.Stdout {
		return nil
	}
	return out.Close()
}
