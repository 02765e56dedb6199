package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querycodec/internal/ir"
	"github.com/roach88/querycodec/internal/odata"
	"github.com/roach88/querycodec/internal/queryir"
	"github.com/roach88/querycodec/internal/querystring"
	"github.com/roach88/querycodec/internal/store"
)

// recorded is what the test server saw.
type recorded struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     string
}

type fakeService struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r *http.Request)
}

func newFakeService(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*fakeService, *httptest.Server) {
	t.Helper()
	fs := &fakeService{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.requests = append(fs.requests, recorded{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     string(body),
		})
		fs.mu.Unlock()
		fs.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeService) last(t *testing.T) recorded {
	t.Helper()
	fs.mu.Lock()
	defer fs.mu.Unlock()
	require.NotEmpty(t, fs.requests)
	return fs.requests[len(fs.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func newSessionAuth(t *testing.T) *SessionAuth {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return &SessionAuth{Storage: s}
}

func TestClient_List(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"value":[{"Id":1},{"Id":2}]}`)
	})
	c := NewClient(srv.URL+"/api/", nil)

	env, err := c.List(context.Background(), "Contacts", "top=n5")
	require.NoError(t, err)
	assert.Len(t, env.Value, 2)

	req := fs.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/Contacts", req.Path)
	assert.Equal(t, "top=n5", req.RawQuery)
	assert.Equal(t, DefaultAccept, req.Header.Get("Accept"))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestClient_ListWithoutQuery(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"Id":1}]`)
	})
	c := NewClient(srv.URL, nil)

	env, err := c.List(context.Background(), "/Contacts", "")
	require.NoError(t, err)
	assert.Len(t, env.Value, 1)
	assert.Empty(t, fs.last(t).RawQuery)
}

func TestClient_ListQuery(t *testing.T) {
	q := queryir.Select{
		From: "Contacts",
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Compare{Field: "City", Op: queryir.OpEq, Value: ir.String("Saint-Jean & Co, Ltd")},
			queryir.Contains{Field: "Name", Value: "O'Brien"},
		}},
		Fields:  []string{"Id", "Name"},
		OrderBy: []queryir.Order{{Field: "Name", Desc: true}},
		Top:     5,
	}
	want, err := odata.Compile(q)
	require.NoError(t, err)

	var decoded ir.Value
	var decodeErr error
	_, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		decoded, decodeErr = DecodeQuery(r, querystring.New())
		writeJSON(w, http.StatusOK, `{"value":[]}`)
	})
	c := NewClient(srv.URL, nil)

	env, err := c.ListQuery(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, env.Value)

	require.NoError(t, decodeErr)
	assert.True(t, ir.Equal(want.Value(), decoded), "server decoded %#v", decoded)
}

func TestClient_ListQueryCompileError(t *testing.T) {
	c := NewClient("http://unused.test", nil)

	_, err := c.ListQuery(context.Background(), queryir.Select{From: "c", Top: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list query")
}

func TestClient_ListOData(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"value":[]}`)
	})
	c := NewClient(srv.URL, nil)

	opts, err := odata.Compile(queryir.Select{
		From:   "Contacts",
		Filter: queryir.Compare{Field: "Name", Op: queryir.OpEq, Value: ir.String("a b")},
		Top:    2,
	})
	require.NoError(t, err)

	_, err = c.ListOData(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "$filter=Name%20eq%20'a%20b'&$top=2", fs.last(t).RawQuery)
}

func TestClient_Get(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"Id":"42","Name":"Ann"}`)
	})
	c := NewClient(srv.URL+"/api", nil)

	var got struct {
		ID   string `json:"Id"`
		Name string
	}
	require.NoError(t, c.Get(context.Background(), "Contacts/", "42", &got))

	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, "/api/Contacts('42')", fs.last(t).Path)

	require.Error(t, c.Get(context.Background(), "Contacts", "", &got))
}

func TestClient_SaveCreatesAndUpdates(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(w, http.StatusCreated, `{"Id":"9","Name":"Ann"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := NewClient(srv.URL, &Interceptor{Auth: staticToken("s-1"), StripFields: []string{"Local"}})

	model := map[string]any{"Name": "Ann", "@odata.etag": "x", "Local": true}
	created, err := c.Save(context.Background(), "Contacts", "", model)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Id": "9", "Name": "Ann"}, created)

	req := fs.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/Contacts", req.Path)
	assert.Equal(t, `{"Name":"Ann"}`, req.Body)
	assert.Equal(t, DefaultContentType, req.Header.Get("Content-Type"))
	assert.Equal(t, "AuthSession s-1", req.Header.Get("Authorization"))

	updated, err := c.Save(context.Background(), "Contacts", "9", map[string]any{"Name": "Ann Lee", "__ModifiedOn": "t"})
	require.NoError(t, err)
	assert.Nil(t, updated)

	req = fs.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/Contacts('9')", req.Path)
	assert.Equal(t, `{"Name":"Ann Lee"}`, req.Body)
}

func TestClient_PatchAndDelete(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			writeJSON(w, http.StatusOK, `{"Id":"9","Active":false}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := NewClient(srv.URL, nil)

	out, err := c.Patch(context.Background(), "Contacts", "9", map[string]any{"Active": false})
	require.NoError(t, err)
	assert.Equal(t, false, out["Active"])
	assert.Equal(t, http.MethodPatch, fs.last(t).Method)
	assert.Equal(t, `{"Active":false}`, fs.last(t).Body)

	require.NoError(t, c.Delete(context.Background(), "Contacts", "9"))
	assert.Equal(t, http.MethodDelete, fs.last(t).Method)
	assert.Equal(t, "/Contacts('9')", fs.last(t).Path)

	_, err = c.Patch(context.Background(), "Contacts", "", nil)
	require.Error(t, err)
	require.Error(t, c.Delete(context.Background(), "Contacts", ""))
}

func TestClient_StatusError(t *testing.T) {
	_, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such contact", http.StatusNotFound)
	})
	c := NewClient(srv.URL, nil)

	err := c.Get(context.Background(), "Contacts", "1", &map[string]any{})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.MethodGet, se.Method)
	assert.Equal(t, "no such contact", se.Body)
	assert.Contains(t, se.Error(), "HTTP 404")
}

func TestClient_RequestID(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	c := NewClient(srv.URL, &Interceptor{RequestID: NewFixedGenerator("req-1")})

	_, err := c.List(context.Background(), "Contacts", "")
	require.NoError(t, err)
	assert.Equal(t, "req-1", fs.last(t).Header.Get(DefaultRequestIDHeader))
}

func TestClient_InterceptorIsCopied(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	ic := &Interceptor{Accept: "text/plain"}
	c := NewClient(srv.URL, ic)
	ic.Accept = "application/xml"

	_, err := c.List(context.Background(), "Contacts", "")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", fs.last(t).Header.Get("Accept"))
}

func TestClient_LoginStoresSession(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			writeJSON(w, http.StatusCreated, `{"sid":"s-1","app":"crm","user":"ann","userID":"u-7","pwd":"secret"}`)
		default:
			writeJSON(w, http.StatusOK, `[]`)
		}
	})
	auth := newSessionAuth(t)
	// A stale session must not be sent with the login request
	require.NoError(t, auth.Save(context.Background(), Session{SID: "stale"}))
	c := NewClient(srv.URL, nil, WithSession(auth))

	s, err := c.Login(context.Background(), "Sessions", Credentials{App: "crm", User: "ann", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, Session{SID: "s-1", App: "crm", User: "ann", UserID: "u-7"}, s)

	login := fs.last(t)
	assert.Equal(t, "/Sessions", login.Path)
	assert.Empty(t, login.Header.Get("Authorization"))
	assert.JSONEq(t, `{"app":"crm","user":"ann","pwd":"secret"}`, login.Body)

	stored, ok, err := auth.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s, stored)

	raw, _, err := auth.Storage.Get(context.Background(), DefaultSessionKey)
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret")

	_, err = c.List(context.Background(), "Contacts", "")
	require.NoError(t, err)
	assert.Equal(t, "AuthSession s-1", fs.last(t).Header.Get("Authorization"))
}

func TestClient_LoginRejected(t *testing.T) {
	_, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})
	auth := newSessionAuth(t)
	c := NewClient(srv.URL, nil, WithSession(auth))

	_, err := c.Login(context.Background(), "Sessions", Credentials{User: "ann", Password: "x"})
	require.True(t, IsStatus(err, http.StatusUnauthorized))

	_, ok, err := auth.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_LoginWithoutSID(t *testing.T) {
	_, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"user":"ann"}`)
	})
	c := NewClient(srv.URL, nil)

	_, err := c.Login(context.Background(), "Sessions", Credentials{User: "ann"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sid")
}

func TestClient_Logout(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	auth := newSessionAuth(t)
	require.NoError(t, auth.Save(context.Background(), Session{SID: "s-1"}))
	c := NewClient(srv.URL, nil, WithSession(auth))

	require.NoError(t, c.Logout(context.Background(), "Sessions"))

	req := fs.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/Sessions('s-1')", req.Path)
	assert.Equal(t, "AuthSession s-1", req.Header.Get("Authorization"))

	_, ok, err := auth.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	// Logged out already: nothing to do
	require.NoError(t, c.Logout(context.Background(), "Sessions"))
}

func TestClient_LogoutClearsEvenWhenServerFails(t *testing.T) {
	_, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	auth := newSessionAuth(t)
	require.NoError(t, auth.Save(context.Background(), Session{SID: "s-1"}))
	c := NewClient(srv.URL, nil, WithSession(auth))

	err := c.Logout(context.Background(), "Sessions")
	require.True(t, IsStatus(err, http.StatusInternalServerError))

	_, ok, err := auth.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_Authenticate(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantOK    bool
		wantErr   bool
		wantKept  bool
		wantStore Session
	}{
		{"valid session", http.StatusOK, `{"user":"ann"}`, true, false, true, Session{SID: "s-1", User: "ann"}},
		{"expired session", http.StatusNotFound, "gone", false, false, false, Session{}},
		{"unauthorized", http.StatusUnauthorized, "no", false, false, false, Session{}},
		{"server error", http.StatusInternalServerError, "boom", false, true, true, Session{SID: "s-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			auth := newSessionAuth(t)
			require.NoError(t, auth.Save(context.Background(), Session{SID: "s-1"}))
			c := NewClient(srv.URL, nil, WithSession(auth))

			ok, err := c.Authenticate(context.Background(), "Sessions")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOK, ok)

			stored, kept, err := auth.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantKept, kept)
			assert.Equal(t, tt.wantStore, stored)
		})
	}
}

func TestClient_AuthenticateWithoutSession(t *testing.T) {
	c := NewClient("http://unused.test", nil, WithSession(newSessionAuth(t)))

	ok, err := c.Authenticate(context.Background(), "Sessions")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewClient("http://unused.test", nil).Authenticate(context.Background(), "Sessions")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSessionAuth_SaveWithoutSIDClears(t *testing.T) {
	ctx := context.Background()
	auth := newSessionAuth(t)
	require.NoError(t, auth.Save(ctx, Session{SID: "s-1"}))
	require.NoError(t, auth.Save(ctx, Session{User: "ann"}))

	_, ok, err := auth.Storage.Get(ctx, DefaultSessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionAuth_CorruptStorage(t *testing.T) {
	ctx := context.Background()
	auth := newSessionAuth(t)
	require.NoError(t, auth.Storage.Set(ctx, DefaultSessionKey, "{broken"))

	_, _, err := auth.Token(ctx)
	require.Error(t, err)
}

func TestDecodeQuery_Empty(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/Contacts", nil)

	v, err := DecodeQuery(r, querystring.New())
	require.NoError(t, err)
	assert.Equal(t, 0, v.(*ir.Object).Len())
}

func TestDecodeQuery_Values(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/Contacts?top=n5&q=sann%20lee", nil)

	v, err := DecodeQuery(r, querystring.New())
	require.NoError(t, err)
	assert.True(t, ir.Equal(ir.NewObject(ir.P("top", ir.Number(5)), ir.P("q", ir.String("ann lee"))), v))

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"top":5,"q":"ann lee"}`, string(data))
}

func TestClient_ListQueryWithBoundValues(t *testing.T) {
	fs, srv := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	compiler := odata.NewCompiler()
	compiler.BoundValues["owner"] = ir.String("u-42")
	c := NewClient(srv.URL, nil, WithCompiler(compiler))

	_, err := c.ListQuery(context.Background(), queryir.Select{
		From:   "Contacts",
		Filter: queryir.BoundEquals{Field: "OwnerId", Alias: "owner"},
	})
	require.NoError(t, err)

	v, err := querystring.Decode(fs.last(t).RawQuery)
	require.NoError(t, err)
	obj := v.(*ir.Object)
	assert.Equal(t, []string{"filter", "@owner"}, obj.Keys())
	alias, _ := obj.Get("@owner")
	assert.Equal(t, ir.String("'u-42'"), alias)
}
