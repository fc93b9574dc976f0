// Package appwrite is a small client for the parts of the Appwrite REST API
// that folio uses: email sessions, the current account and documents.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UniqueID asks the backend to generate a document id.
const UniqueID = "unique()"

// CurrentSession addresses the session the request is authenticated with.
const CurrentSession = "current"

// Error is the error body returned by the backend.
type Error struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("appwrite %d %s: %s", e.Code, e.Type, e.Message)
	}
	return fmt.Sprintf("appwrite %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == http.StatusNotFound
}

type sessionKey struct{}

// ContextWithSession attaches a session secret to ctx. Requests made with the
// returned context are authenticated as that session.
func ContextWithSession(ctx context.Context, secret string) context.Context {
	return context.WithValue(ctx, sessionKey{}, secret)
}

// SessionFromContext returns the session secret attached to ctx, if any.
func SessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(string)
	return s
}

// Session is a created email/password session.
type Session struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
	Expire string `json:"expire"`
}

// User is the account behind a session.
type User struct {
	ID    string `json:"$id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type documentList struct {
	Total     int               `json:"total"`
	Documents []json.RawMessage `json:"documents"`
}

// Limit builds a limit query.
func Limit(n int) string {
	return `{"method":"limit","values":[` + strconv.Itoa(n) + `]}`
}

// OrderDesc builds a descending order query on attr.
func OrderDesc(attr string) string {
	b, _ := json.Marshal(struct {
		Method    string `json:"method"`
		Attribute string `json:"attribute"`
	}{"orderDesc", attr})
	return string(b)
}

// Client talks to one Appwrite project.
type Client struct {
	endpoint   string
	project    string
	httpClient *http.Client
}

// New creates a Client for endpoint (e.g. https://cloud.appwrite.io/v1).
func New(endpoint, project string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		project:  project,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Appwrite-Project", c.project)
	req.Header.Set("X-Appwrite-Response-Format", "1.5.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s := SessionFromContext(ctx); s != "" {
		req.Header.Set("X-Appwrite-Session", s)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		ae := &Error{Code: resp.StatusCode}
		if json.Unmarshal(data, ae) != nil || ae.Message == "" {
			ae.Message = http.StatusText(resp.StatusCode)
		}
		ae.Code = resp.StatusCode
		return nil, ae
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp, nil
}

// CreateEmailSession signs in with email and password. The secret is read
// from the response body, or from the session cookie when the backend does
// not return it.
func (c *Client) CreateEmailSession(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	resp, err := c.do(ctx, http.MethodPost, "/account/sessions/email", nil,
		map[string]string{"email": email, "password": password}, &s)
	if err != nil {
		return nil, err
	}
	if s.Secret == "" {
		name := "a_session_" + c.project
		for _, ck := range resp.Cookies() {
			if strings.EqualFold(ck.Name, name) {
				s.Secret = ck.Value
				break
			}
		}
	}
	if s.Secret == "" {
		return nil, errors.New("backend returned a session without a secret")
	}
	return &s, nil
}

// GetAccount returns the user of the session in ctx.
func (c *Client) GetAccount(ctx context.Context) (*User, error) {
	var u User
	if _, err := c.do(ctx, http.MethodGet, "/account", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteSession deletes a session by id. Use CurrentSession for the session in ctx.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/account/sessions/"+url.PathEscape(id), nil, nil, nil)
	return err
}

func documentsPath(database, collection string) string {
	return "/databases/" + url.PathEscape(database) + "/collections/" + url.PathEscape(collection) + "/documents"
}

// GetDocument decodes one document into out.
func (c *Client) GetDocument(ctx context.Context, database, collection, id string, out any) error {
	_, err := c.do(ctx, http.MethodGet, documentsPath(database, collection)+"/"+url.PathEscape(id), nil, nil, out)
	return err
}

// ListDocuments returns the raw documents matching queries.
func (c *Client) ListDocuments(ctx context.Context, database, collection string, queries ...string) ([]json.RawMessage, error) {
	var q url.Values
	if len(queries) > 0 {
		q = url.Values{"queries[]": queries}
	}
	var list documentList
	if _, err := c.do(ctx, http.MethodGet, documentsPath(database, collection), q, nil, &list); err != nil {
		return nil, err
	}
	return list.Documents, nil
}

// CreateDocument creates a document with id, or a generated id when id is UniqueID.
func (c *Client) CreateDocument(ctx context.Context, database, collection, id string, data any) error {
	body := map[string]any{"documentId": id, "data": data}
	_, err := c.do(ctx, http.MethodPost, documentsPath(database, collection), nil, body, nil)
	return err
}

// UpdateDocument patches the attributes in data.
func (c *Client) UpdateDocument(ctx context.Context, database, collection, id string, data any) error {
	body := map[string]any{"data": data}
	_, err := c.do(ctx, http.MethodPatch, documentsPath(database, collection)+"/"+url.PathEscape(id), nil, body, nil)
	return err
}

func (c *Client) DeleteDocument(ctx context.Context, database, collection, id string) error {
	_, err := c.do(ctx, http.MethodDelete, documentsPath(database, collection)+"/"+url.PathEscape(id), nil, nil, nil)
	return err
}
