package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freelance-market/internal/core/auth"
	"freelance-market/internal/core/config"
	"freelance-market/internal/core/database/dbtest"
	"freelance-market/internal/core/storage"
	"freelance-market/internal/repo"
	"freelance-market/internal/service"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	t     *testing.T
	deps  *Deps
	api   *gin.Engine
	admin *gin.Engine
}

func newTestServer(t *testing.T, market config.Market) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	require.NoError(t, repo.Migrate(db))
	repos := repo.New(db)
	blobs, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	l := zap.NewNop()
	rep := service.NewReputationService(repos, nil, time.Minute, l)
	j := &auth.JWTer{Secret: []byte("router-test"), Issuer: "test", TTL: time.Hour}
	ledger := service.NewLedgerService(repos, l)
	d := &Deps{
		Log:        l,
		HTTP:       config.HTTP{MaxBodyMB: 1, RequestTimeoutSec: 5},
		Market:     market,
		Storage:    config.Storage{Dir: blobs.Dir, PublicPrefix: blobs.PublicPrefix},
		Identity:   service.NewIdentityService(repos, j, rep, l),
		Registry:   service.NewRegistry(repos, blobs, rep, ledger, service.RegistryOptions{AllowRequesterSelfAssign: market.AllowRequesterSelfAssign}, l),
		Ledger:     ledger,
		Reputation: rep,
		Profiles:   service.NewProfileService(repos, blobs, l),
	}
	return &testServer{t: t, deps: d, api: NewAPIEngine(d), admin: NewAdminEngine(d)}
}

func (s *testServer) do(h http.Handler, method, path, token string, body io.Reader, contentType string) (int, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *testServer) json(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	return s.do(s.api, method, path, token, r, "application/json")
}

func (s *testServer) adminJSON(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	return s.do(s.admin, method, path, token, r, "application/json")
}

func (s *testServer) multipart(path, token string, fields map[string]string, fileField, fileName string, file []byte) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(s.t, err)
		_, err = fw.Write(file)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())
	return s.do(s.api, http.MethodPost, path, token, &buf, mw.FormDataContentType())
}

// register 返回 token 与用户 id
func (s *testServer) register(name string) (string, uint64) {
	s.t.Helper()
	code, env := s.json(http.MethodPost, "/api/v1/register", "", map[string]string{
		"username": name, "email": name + "@example.com", "password": "secret1",
	})
	require.Equal(s.t, http.StatusOK, code, env.Msg)
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID uint64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &out))
	return out.Token, out.User.ID
}

func (s *testServer) createListing(token string, price string) uint64 {
	s.t.Helper()
	code, env := s.multipart("/api/v1/services", token, map[string]string{
		"serviceTitle": "Logo", "description": "vector logo", "price": price, "category": "design", "duration": "3",
	}, "", "", nil)
	require.Equal(s.t, http.StatusOK, code, env.Msg)
	var l struct {
		ID uint64 `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &l))
	return l.ID
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

