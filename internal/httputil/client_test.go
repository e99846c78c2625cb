package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestGetSendsBrowserHeaders(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != AndroidUA {
			t.Errorf("User-Agent = %q, want override", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Accept-Language") == "" {
			t.Error("missing Accept-Language")
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := Get(context.Background(), srv.Client(), srv.URL, http.Header{"User-Agent": {AndroidUA}})
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Errorf("body = %q", body)
	}
}

func TestGetNon2xx(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Get(context.Background(), srv.Client(), srv.URL, nil)
	var se *HTTPStatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if se.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", se.StatusCode)
	}
}

func TestGetRejectsPlainHTTP(t *testing.T) {
	_, err := Get(context.Background(), NewClient(0), "http://example.com", nil)
	if err == nil {
		t.Fatal("expected error for http URL")
	}
}

func TestPostForm(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.FormValue("id"); got != "https://www.tiktok.com/@a/video/1" {
			t.Errorf("form id = %q", got)
		}
		w.Write([]byte("done"))
	}))
	defer srv.Close()

	form := url.Values{"id": {"https://www.tiktok.com/@a/video/1"}}
	body, err := PostForm(context.Background(), srv.Client(), srv.URL, form, nil)
	if err != nil {
		t.Fatalf("PostForm() error: %v", err)
	}
	if string(body) != "done" {
		t.Errorf("body = %q", body)
	}
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"msg":"success"}`))
	}))
	defer srv.Close()

	var out struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := GetJSON(context.Background(), srv.Client(), srv.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if out.Code != 0 || out.Msg != "success" {
		t.Errorf("decoded %+v", out)
	}
}

func TestTimeoutIsClassified(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := srv.Client()
	c.Timeout = 50 * time.Millisecond

	_, err := Get(context.Background(), c, srv.URL, nil)
	if !IsTimeout(err) {
		t.Fatalf("IsTimeout(%v) = false", err)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error %v does not wrap ErrTimeout", err)
	}
}

func TestResolveRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/t/ZTabc", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/@bob/video/42?_r=1", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/@bob/video/42", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	got, err := ResolveRedirect(context.Background(), srv.Client(), srv.URL+"/t/ZTabc")
	if err != nil {
		t.Fatalf("ResolveRedirect() error: %v", err)
	}
	if want := srv.URL + "/@bob/video/42?_r=1"; got != want {
		t.Errorf("ResolveRedirect() = %q, want %q", got, want)
	}
}

func TestResolveRedirectFailsSoft(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	c := srv.Client()
	target := srv.URL + "/t/ZTabc"
	srv.Close()

	got, err := ResolveRedirect(context.Background(), c, target)
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if got != target {
		t.Errorf("ResolveRedirect() = %q, want original %q", got, target)
	}
}

func TestWithSessionKeepsCookies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
	})
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusForbidden)
		}
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	session := WithSession(srv.Client())
	ctx := context.Background()
	if _, err := Get(ctx, session, srv.URL+"/home", nil); err != nil {
		t.Fatalf("home: %v", err)
	}
	if _, err := PostForm(ctx, session, srv.URL+"/submit", url.Values{}, nil); err != nil {
		t.Fatalf("submit without session cookie: %v", err)
	}

	// A fresh session starts without cookies.
	if _, err := PostForm(ctx, WithSession(srv.Client()), srv.URL+"/submit", url.Values{}, nil); err == nil {
		t.Error("expected a new session to be rejected")
	}
}

func TestOpenStreamsBody(t *testing.T) {
	payload := strings.Repeat("x", 64*1024)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	body, err := Open(context.Background(), srv.Client(), srv.URL+"/a.mp4", nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer body.Close()
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(payload) {
		t.Errorf("read %d bytes, want %d", len(got), len(payload))
	}

	_, err = Open(context.Background(), srv.Client(), srv.URL+"/missing", nil)
	var se *HTTPStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Errorf("err = %v, want 404 HTTPStatusError", err)
	}
}
