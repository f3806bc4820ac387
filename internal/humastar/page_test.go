package humastar

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
)

type testOptions struct {
	Title    string   `json:"title,omitempty"`
	Labels   bool     `json:"siteLabels" default:"true"`
	Provider string   `json:"basemapProvider" default:"openstreetmap"`
	Tags     []string `json:"tags"`
	Hidden   string   `json:"-"`
}

func TestBuildSignals(t *testing.T) {
	_, api := humatest.New(t)

	raw, err := BuildSignals(api, reflect.TypeOf(testOptions{}), map[string]any{"progress": 0, "title": "override"})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatal(err)
	}

	if got["sitelabels"] != true {
		t.Fatalf("sitelabels=%v, want true", got["sitelabels"])
	}
	if got["basemapprovider"] != "openstreetmap" {
		t.Fatalf("basemapprovider=%v", got["basemapprovider"])
	}
	if got["title"] != "override" {
		t.Fatalf("title=%v, want UI override", got["title"])
	}
	if _, ok := got["tags"]; ok {
		t.Fatal("array fields must not become signals")
	}
	if _, ok := got["progress"]; !ok {
		t.Fatal("UI signal missing")
	}
}

func TestDataInit(t *testing.T) {
	got := DataInit("/a", "/b")
	if got != "@get('/a'); @get('/b')" {
		t.Fatalf("got %q", got)
	}
}

func TestSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"coordinates":"0,0","svg":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.String("coordinates") != "0,0" || s.String("svg") != "" || s.String("missing") != "" {
		t.Fatalf("signals=%v", s)
	}
	in := SignalsInput{RawBody: []byte("{")}
	if _, err := in.MustParse(); err == nil {
		t.Fatal("expected parse error")
	}
}
