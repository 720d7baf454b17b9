package push

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendWithoutKey(t *testing.T) {
	s := NewServerChan("")
	if err := s.Send("标题", "内容"); !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected ErrNoKey, got %v", err)
	}
}

func TestSendPostsForm(t *testing.T) {
	var gotPath, gotTitle, gotDesp, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotTitle = r.PostFormValue("title")
		gotDesp = r.PostFormValue("desp")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	s := NewServerChan("SCT_KEY")
	s.endpoint = srv.URL

	if err := s.Send("AI 新闻速递", "## 正文"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/SCT_KEY.send" {
		t.Fatalf("got path %q", gotPath)
	}
	if gotTitle != "AI 新闻速递" || gotDesp != "## 正文" {
		t.Fatalf("form wrong: title=%q desp=%q", gotTitle, gotDesp)
	}
	if gotUA == "" {
		t.Fatal("expected UA header")
	}
}

func TestSendNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewServerChan("SCT_KEY")
	s.endpoint = srv.URL

	if err := s.Send("标题", "内容"); err == nil {
		t.Fatal("expected error on 403")
	}
}
