package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/bungeesim/internal/jump"
	"github.com/san-kum/bungeesim/internal/render"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	sim, err := jump.New()
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "static")
	images := render.NewImageDir(dir, render.Options{WidthIn: 2, HeightIn: 2, DPI: 40})
	return NewServer(sim, images, nil), dir
}

func formValues(height, duration, k, length, mass string) url.Values {
	return url.Values{
		"starting_height": {height},
		"time":            {duration},
		"k":               {k},
		"bungee_length":   {length},
		"jumper_mass":     {mass},
	}
}

func post(t *testing.T, h http.Handler, form url.Values) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	resp := rec.Result()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestServer_Form(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`name="starting_height" value="80"`, `name="k" value="150"`, `name="bungee_length" value="50"`} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %s", want)
		}
	}
	if strings.Contains(body, "<img") {
		t.Error("form should not show a chart before a jump")
	}
}

func TestServer_UnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServer_SafeJump(t *testing.T) {
	srv, dir := newTestServer(t)

	resp, body := post(t, srv.Handler(), formValues("80", "20", "150", "50", "100"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "OUTCOME: A safe bungee jump happened") {
		t.Error("missing safe outcome")
	}

	m := regexp.MustCompile(`src="/static/(\d+\.png)"`).FindStringSubmatch(body)
	if m == nil {
		t.Fatal("missing chart image")
	}
	if _, err := os.Stat(filepath.Join(dir, m[1])); err != nil {
		t.Errorf("chart not published: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/"+m[1], nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET static image status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("image Content-Type = %q", ct)
	}
}

func TestServer_ImpactWithWarning(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := post(t, srv.Handler(), formValues("-10", "20", "5", "5", "100"))

	for _, want := range []string{
		"WARNING: Negative jump height, setting to 80m",
		"OUTCOME: The jumper hit the ground after",
		"REASON: l value was set too high",
		`class="outcome-impact"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %q", want)
		}
	}
	if !strings.Contains(body, `name="starting_height" value="-10"`) {
		t.Error("form should keep the submitted value")
	}
}

func TestServer_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		msg  string
	}{
		{"not a number", formValues("eighty", "20", "150", "50", "100"), "Not a valid float value."},
		{"missing", formValues("80", "", "150", "50", "100"), "This field is required."},
		{"infinite", formValues("80", "20", "Inf", "50", "100"), "Not a valid float value."},
		{"nan", formValues("80", "20", "150", "NaN", "100"), "Not a valid float value."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, dir := newTestServer(t)

			resp, body := post(t, srv.Handler(), tt.form)
			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want 200", resp.StatusCode)
			}
			if !strings.Contains(body, tt.msg) {
				t.Errorf("missing error %q", tt.msg)
			}
			if strings.Contains(body, "OUTCOME:") || strings.Contains(body, "<img") {
				t.Error("invalid input should not produce a result")
			}
			if pngs, _ := filepath.Glob(filepath.Join(dir, "*.png")); len(pngs) != 0 {
				t.Errorf("unexpected images %v", pngs)
			}
		})
	}
}

func TestServer_ListenAndServe(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, "localhost:0") }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
