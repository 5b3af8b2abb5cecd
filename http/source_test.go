package http_test

import (
	"fmt"
	"net"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/lakeward/dqk/http"
)

func TestJSONSource(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	j, err := http.NewJSONSource(http.WithListener(ln))
	if err != nil {
		t.Fatalf("getting json source: %v", err)
	}

	tests := []struct {
		method string
		path   string
		data   string
		exp    []map[string]interface{}
	}{
		{
			method: "POST",
			path:   "/",
			data:   `{"qty": 2}`,
			exp:    []map[string]interface{}{{"qty": 2.0}},
		},
		{
			method: "POST",
			path:   "/records",
			data:   `{"qty": 2}{"qty": 3}`,
			exp:    []map[string]interface{}{{"qty": 2.0}, {"qty": 3.0}},
		},
		{
			method: "POST",
			path:   "/records",
			data: `{"qty": 2}
{"station": "alpha"}`,
			exp: []map[string]interface{}{{"qty": 2.0}, {"station": "alpha"}},
		},
	}

	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			j.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(test.method, test.path, strings.NewReader(test.data)))
			for _, exp := range test.exp {
				data, err := j.Record()
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				} else if !reflect.DeepEqual(data, exp) {
					t.Fatalf("unexpected data: %#v, exp: %#v", data, exp)
				}
			}
		})
	}
}

func TestJSONSourceRejectsGet(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}
	j, err := http.NewJSONSource(http.WithListener(ln))
	if err != nil {
		t.Fatalf("getting json source: %v", err)
	}
	w := httptest.NewRecorder()
	j.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != 405 {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
