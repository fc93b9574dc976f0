package appwrite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/v1/", "proj")
}

func TestCreateEmailSession_SecretFromBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/account/sessions/email" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Appwrite-Project") != "proj" {
			t.Errorf("project header = %q", r.Header.Get("X-Appwrite-Project"))
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@b.c" || body["password"] != "pw" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{"$id":"s1","userId":"u1","secret":"sec"}`))
	})

	s, err := c.CreateEmailSession(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "s1" || s.UserID != "u1" || s.Secret != "sec" {
		t.Errorf("session = %+v", s)
	}
}

func TestCreateEmailSession_SecretFromCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "a_session_proj", Value: "cookie-secret"})
		w.Write([]byte(`{"$id":"s1","userId":"u1","secret":""}`))
	})

	s, err := c.CreateEmailSession(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if s.Secret != "cookie-secret" {
		t.Errorf("Secret = %q", s.Secret)
	}
}

func TestGetAccount_SendsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Appwrite-Session"); got != "sec" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"missing scope","code":401,"type":"general_unauthorized_scope"}`))
			return
		}
		w.Write([]byte(`{"$id":"u1","email":"a@b.c"}`))
	})

	if _, err := c.GetAccount(context.Background()); err == nil {
		t.Fatal("expected error without session")
	} else if ae, ok := err.(*Error); !ok || ae.Code != 401 || ae.Type != "general_unauthorized_scope" {
		t.Errorf("err = %#v", err)
	}

	u, err := c.GetAccount(ContextWithSession(context.Background(), "sec"))
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u1" {
		t.Errorf("ID = %q", u.ID)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/databases/db/collections/portfolio/documents/singleton" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Document not found","code":404,"type":"document_not_found"}`))
	})

	var out map[string]any
	err := c.GetDocument(context.Background(), "db", "portfolio", "singleton", &out)
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestListDocuments_Queries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()["queries[]"]
		if len(q) != 2 || q[0] != OrderDesc("$createdAt") || q[1] != Limit(100) {
			t.Errorf("queries = %v", q)
		}
		w.Write([]byte(`{"total":2,"documents":[{"$id":"a"},{"$id":"b"}]}`))
	})

	docs, err := c.ListDocuments(context.Background(), "db", "projects", OrderDesc("$createdAt"), Limit(100))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d", len(docs))
	}
}

func TestCreateAndUpdateDocument_Bodies(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&body)
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			if string(body["documentId"]) != `"p-1"` {
				t.Errorf("documentId = %s", body["documentId"])
			}
		case http.MethodPatch:
			if _, ok := body["documentId"]; ok {
				t.Error("PATCH body carries documentId")
			}
		}
		if string(body["data"]) != `{"title":"x"}` {
			t.Errorf("data = %s", body["data"])
		}
		w.Write([]byte(`{}`))
	})

	ctx := context.Background()
	if err := c.CreateDocument(ctx, "db", "projects", "p-1", map[string]string{"title": "x"}); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateDocument(ctx, "db", "projects", "p-1", map[string]string{"title": "x"}); err != nil {
		t.Fatal(err)
	}
	want := []string{"POST /v1/databases/db/collections/projects/documents", "PATCH /v1/databases/db/collections/projects/documents/p-1"}
	if len(seen) != 2 || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("requests = %v", seen)
	}
}

func TestErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.DeleteSession(context.Background(), CurrentSession)
	ae, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %T %v", err, err)
	}
	if ae.Code != http.StatusBadGateway || ae.Message != "Bad Gateway" {
		t.Errorf("err = %+v", ae)
	}
}
