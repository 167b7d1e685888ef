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
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rjeczalik/notify"

	"github.com/UNO-SOFT/formparse/formparse"
	"github.com/UNO-SOFT/formparse/logger"
)

// watchParse parses every view file appearing in srcDir into dstDir,
// running at most concurrency parses at once.
func watchParse(ctx context.Context, P *formparse.Parser, dstDir, srcDir, suffix string, formType formparse.FormType, mode formparse.Mode, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	tokens := make(chan struct{}, concurrency)
	eventCh := make(chan notify.EventInfo, 16)
	if err := notify.Watch(srcDir, eventCh, eventsToWatch...); err != nil {
		return errors.Wrap(err, "watch")
	}
	defer notify.Stop(eventCh)
	logger.Info(ctx, "watching", "src", srcDir, "dst", dstDir)
	for {
		var evt notify.EventInfo
		select {
		case <-ctx.Done():
			return nil
		case evt = <-eventCh:
		}
		fn := evt.Path()
		dst, ok := watchTarget(dstDir, fn, suffix)
		if !ok {
			continue
		}
		go func() {
			// let the writer finish
			time.Sleep(time.Second)
			select {
			case tokens <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-tokens }()
			for i := 0; i < 3; i++ {
				err := parseFile(P, dst, fn, "", formType, mode)
				if err == nil {
					logger.Info(ctx, "parsed", "src", fn, "dst", dst)
					return
				}
				logger.Warn(ctx, "parse", "src", fn, "attempt", i, "error", err)
				time.Sleep(time.Duration(i+1) * time.Second)
			}
		}()
	}
}

// watchTarget returns the destination of a view file, and whether fn is
// a view file at all.
func watchTarget(dstDir, fn, suffix string) (string, bool) {
	bn := filepath.Base(fn)
	ext := strings.ToLower(filepath.Ext(bn))
	if ext != ".xml" && ext != ".json" {
		return "", false
	}
	if strings.HasSuffix(bn, suffix) {
		return "", false
	}
	return filepath.Join(dstDir, strings.TrimSuffix(bn, filepath.Ext(bn))+suffix), true
}
