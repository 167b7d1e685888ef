package views_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-SOFT/formparse/logger"
	"github.com/UNO-SOFT/formparse/views"
)

const coView = `{
  "name": "CollectionObject",
  "class": "edu.ku.brc.specify.datamodel.CollectionObject",
  "busrules": "edu.ku.brc.specify.datamodel.busrules.CollectionObjectBusRules",
  "altviews": {
    "CollectionObject View": {"name": "CollectionObject View", "viewdef": "CollectionObject", "mode": "view"},
    "CollectionObject Edit": {"name": "CollectionObject Edit", "viewdef": "CollectionObject", "mode": "edit", "default": "true"}
  },
  "viewdefs": {"CollectionObject": "<viewdef name=\"CollectionObject\" type=\"form\"/>"},
  "viewsetId": 4
}`

func TestDecode(t *testing.T) {
	v, err := views.Decode([]byte(coView))
	require.NoError(t, err)

	want := views.AltViewList{
		{Name: "CollectionObject View", Mode: "view", ViewDef: "CollectionObject"},
		{Name: "CollectionObject Edit", Mode: "edit", ViewDef: "CollectionObject", Default: true},
	}
	if diff := cmp.Diff(want, v.AltViews); diff != "" {
		t.Error(diff)
	}
	require.NotNil(t, v.ViewSetID)
	assert.Equal(t, 4, *v.ViewSetID)

	b, err := json.Marshal(v.AltViews)
	require.NoError(t, err)
	var back views.AltViewList
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, want, back)
}

func TestDecodeBareViewDef(t *testing.T) {
	v, err := views.Decode([]byte(`<?xml version="1.0"?>
<viewdef name="Agent Table" class="edu.ku.brc.specify.datamodel.Agent" type="formtable"><columnDef>p</columnDef></viewdef>`))
	require.NoError(t, err)
	assert.Equal(t, "Agent Table", v.Name)
	assert.Equal(t, "edu.ku.brc.specify.datamodel.Agent", v.Class)
	require.Len(t, v.AltViews, 1)
	assert.Equal(t, "view", v.AltViews[0].Mode)
	assert.Contains(t, v.ViewDefs["Agent Table"], "<columnDef>")

	_, err = views.Decode([]byte(`<rows/>`))
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	c := views.NewCache()
	assert.False(t, c.Has("a"))
	c.Set("a", nil)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Nil(t, v)
	c.Set("b", &views.ViewDefinition{Name: "b"})
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"a", "b"}, c.Names())
}

func newServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/context/view.json" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("name") {
		case "CollectionObject":
			time.Sleep(10 * time.Millisecond)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(coView))
		case "Slow":
			time.Sleep(300 * time.Millisecond)
			w.Write([]byte(coView))
		case "WebOnly":
			w.WriteHeader(http.StatusNoContent)
		case "Broken":
			http.Error(w, "teapot", http.StatusTeapot)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetch(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	defer srv.Close()

	f := views.NewFetcher(srv.URL+"/", views.NewCache(), logger.Nop())
	ctx := context.Background()

	v, err := f.Fetch(ctx, "CollectionObject")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "edu.ku.brc.specify.datamodel.CollectionObject", v.Class)

	v2, err := f.Fetch(ctx, "CollectionObject")
	require.NoError(t, err)
	assert.Same(t, v, v2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestFetchNotFoundIsCached(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	defer srv.Close()

	f := views.NewFetcher(srv.URL, nil, logger.Nop())
	for i := 0; i < 2; i++ {
		v, err := f.Fetch(context.Background(), "NoSuchView")
		require.NoError(t, err)
		assert.Nil(t, v)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.True(t, f.Cache.Has("NoSuchView"))
}

func TestFetchNoContentIsNotCached(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	defer srv.Close()

	f := views.NewFetcher(srv.URL, nil, logger.Nop())
	for i := 0; i < 2; i++ {
		v, err := f.Fetch(context.Background(), "WebOnly")
		require.NoError(t, err)
		assert.Nil(t, v)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
	assert.False(t, f.Cache.Has("WebOnly"))
}

func TestFetchUnexpectedStatus(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	defer srv.Close()

	f := views.NewFetcher(srv.URL, nil, logger.Nop())
	f.Client.RetryMax = 0
	_, err := f.Fetch(context.Background(), "Broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "418")
	assert.False(t, f.Cache.Has("Broken"))
}

func TestFetchConcurrentShareRequest(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	defer srv.Close()

	f := views.NewFetcher(srv.URL, nil, logger.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.Fetch(context.Background(), "CollectionObject")
			assert.NoError(t, err)
			assert.NotNil(t, v)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Equal(t, 1, f.Cache.Len())
}

func TestFetchCancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	defer srv.Close()

	f := views.NewFetcher(srv.URL, nil, logger.Nop())
	ctxA, cancelA := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctxA, "Slow")
		errA <- err
	}()
	time.Sleep(20 * time.Millisecond)

	v, err := f.Fetch(context.Background(), "Slow")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "CollectionObject", v.Name)

	err = <-errA
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.True(t, f.Cache.Has("Slow"))
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/context/datamodel.json" {
			w.Write([]byte(`[{"classname": "a.b.Agent"}]`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := views.NewFetcher(srv.URL, nil, logger.Nop())
	var tables []map[string]string
	require.NoError(t, f.GetJSON(context.Background(), "/context/datamodel.json", &tables))
	assert.Equal(t, "a.b.Agent", tables[0]["classname"])

	assert.Error(t, f.GetJSON(context.Background(), "context/missing.json", &tables))
}
