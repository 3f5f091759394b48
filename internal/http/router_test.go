package http_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/taskboard/internal/auth"
	"github.com/dropDatabas3/taskboard/internal/events"
	httpx "github.com/dropDatabas3/taskboard/internal/http"
	"github.com/dropDatabas3/taskboard/internal/notify"
	"github.com/dropDatabas3/taskboard/internal/store/core"
	"github.com/dropDatabas3/taskboard/internal/store/memory"
)

const testKID = "kid-test"

// env levanta el stack completo contra un JWKS falso: el único doble de
// prueba es el IdP, el resto son las piezas reales con store en memoria.
type env struct {
	key     *rsa.PrivateKey
	store   *memory.Store
	router  nethttp.Handler
	cleanup func()
}

func newEnv(t *testing.T, jwksStatus int) *env {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	doc := map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"use": "sig",
			"kid": testKID,
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if jwksStatus != nethttp.StatusOK {
			w.WriteHeader(jwksStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(doc)
	}))

	resolver := auth.NewKeyResolver(auth.ResolverConfig{
		BaseURL:     srv.URL,
		Realm:       "task-app-realm",
		HTTPTimeout: 2 * time.Second,
	})

	store := memory.New()
	dispatcher := notify.NewDispatcher(notify.LogSender{}, notify.DispatcherConfig{
		Workers: 1, QueueSize: 16, MaxAttempts: 1, Backoff: time.Millisecond,
	})

	router := httpx.NewRouter(httpx.RouterDeps{
		Tasks:    store,
		Events:   events.NewRecorder(store),
		Verifier: auth.NewVerifier(resolver),
		Guard:    auth.NewGuard(nil),
		Notifier: dispatcher,
	})

	return &env{
		key:    key,
		store:  store,
		router: router,
		cleanup: func() {
			srv.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = dispatcher.Shutdown(ctx)
		},
	}
}

func (e *env) token(t *testing.T, sub, username string, roles ...string) string {
	t.Helper()
	rr := make([]any, 0, len(roles))
	for _, r := range roles {
		rr = append(rr, r)
	}
	claims := jwtv5.MapClaims{
		"sub":                sub,
		"preferred_username": username,
		"exp":                time.Now().Add(time.Hour).Unix(),
		"realm_access":       map[string]any{"roles": rr},
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tok.Header["kid"] = testKID
	raw, err := tok.SignedString(e.key)
	require.NoError(t, err)
	return raw
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(b)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Code
}

func TestTasksRequireAuth(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()

	rec := e.do(t, "GET", "/tasks", "", nil)
	require.Equal(t, nethttp.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_MISSING", errCode(t, rec))
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = e.do(t, "GET", "/tasks", "basura.no.jwt", nil)
	require.Equal(t, nethttp.StatusUnauthorized, rec.Code)
	require.Equal(t, "INVALID_CREDENTIALS", errCode(t, rec))
}

func TestIdPDownIs503(t *testing.T) {
	e := newEnv(t, nethttp.StatusInternalServerError)
	defer e.cleanup()

	rec := e.do(t, "GET", "/tasks", e.token(t, "u1", "maria"), nil)
	require.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "AUTH_SERVICE_UNAVAILABLE", errCode(t, rec))
}

func TestCreateForbiddenWithoutRole(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()

	rec := e.do(t, "POST", "/tasks", e.token(t, "u1", "dev", "developer"),
		map[string]any{"title": "no debería pasar"})
	require.Equal(t, nethttp.StatusForbidden, rec.Code)
	require.Equal(t, "FORBIDDEN", errCode(t, rec))

	// El 403 corta antes del store: no quedó nada creado.
	tasks, err := e.store.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func TestCreateTaskForcesReporter(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()

	rec := e.do(t, "POST", "/tasks", e.token(t, "pm-1", "maria", "project_manager"),
		map[string]any{
			"title":       "planear sprint",
			"assignee_id": "dev-7",
			"reporter_id": "atacante", // se ignora: siempre sale del token
		})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	var task core.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	require.Equal(t, "planear sprint", task.Title)
	require.Equal(t, core.StatusTodo, task.Status) // default
	require.Equal(t, "pm-1", task.ReporterID)
	require.Equal(t, "dev-7", task.AssigneeID)

	// La creación emite su evento de analytics.
	n, err := e.store.CountByType(context.Background(), core.EventTaskCreated)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()
	token := e.token(t, "pm-1", "maria", "app_admin")

	rec := e.do(t, "POST", "/tasks", token, map[string]any{"title": "   "})
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)

	rec = e.do(t, "POST", "/tasks", token, map[string]any{"title": "ok", "status": "noexiste"})
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)

	long := make([]byte, core.TitleMaxLen+1)
	for i := range long {
		long[i] = 'x'
	}
	rec = e.do(t, "POST", "/tasks", token, map[string]any{"title": string(long)})
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
}

func TestTaskLifecycle(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()
	pm := e.token(t, "pm-1", "maria", "project_manager")
	dev := e.token(t, "dev-1", "juan") // sin roles: puede leer y mutar por id

	rec := e.do(t, "POST", "/tasks", pm, map[string]any{"title": "revisar PR", "description": "el grande"})
	require.Equal(t, nethttp.StatusCreated, rec.Code)
	var task core.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))

	// merge-patch: sólo status; el resto queda igual
	rec = e.do(t, "PUT", "/tasks/1", dev, map[string]any{"status": "done"})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var updated core.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, core.StatusDone, updated.Status)
	require.Equal(t, "revisar PR", updated.Title)
	require.Equal(t, "el grande", updated.Description)

	// pasar a done emite task_completed
	n, err := e.store.CountByType(context.Background(), core.EventTaskCompleted)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	rec = e.do(t, "DELETE", "/tasks/1", dev, nil)
	require.Equal(t, nethttp.StatusNoContent, rec.Code)

	rec = e.do(t, "GET", "/tasks/1", dev, nil)
	require.Equal(t, nethttp.StatusNotFound, rec.Code)
	require.Equal(t, "TASK_NOT_FOUND", errCode(t, rec))
}

func TestGetUnknownTask(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()

	rec := e.do(t, "GET", "/tasks/999", e.token(t, "u1", "maria"), nil)
	require.Equal(t, nethttp.StatusNotFound, rec.Code)
	require.Equal(t, "TASK_NOT_FOUND", errCode(t, rec))
}

func TestInvalidTaskID(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()
	token := e.token(t, "u1", "maria")

	for _, id := range []string{"abc", "0", "-3"} {
		rec := e.do(t, "GET", "/tasks/"+id, token, nil)
		require.Equal(t, nethttp.StatusBadRequest, rec.Code, "id %q", id)
	}
}

func TestListPaginationParams(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()
	pm := e.token(t, "pm-1", "maria", "project_manager")

	for i := 0; i < 3; i++ {
		rec := e.do(t, "POST", "/tasks", pm, map[string]any{"title": "t"})
		require.Equal(t, nethttp.StatusCreated, rec.Code)
	}

	rec := e.do(t, "GET", "/tasks?skip=1&limit=1", pm, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var page []core.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page, 1)
	require.Equal(t, int64(2), page[0].ID)

	rec = e.do(t, "GET", "/tasks?skip=x", pm, nil)
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()

	rec := e.do(t, "GET", "/users/me", e.token(t, "u1", "maria", "project_manager"), nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var out struct {
		ID       string   `json:"id"`
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "u1", out.ID)
	require.Equal(t, "maria", out.Username)
	require.Equal(t, []string{"project_manager"}, out.Roles)
}

func TestMeRolesNeverNull(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()

	rec := e.do(t, "GET", "/users/me", e.token(t, "u1", "maria"), nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"roles":[]`)
}

func TestLogEventAndStats(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()
	token := e.token(t, "u1", "maria")

	rec := e.do(t, "POST", "/log-event", token, map[string]any{
		"event_type": core.EventTaskCompleted,
		"user_id":    "u1",
		"details":    map[string]any{"task_id": 42},
	})
	require.Equal(t, nethttp.StatusAccepted, rec.Code)
	var out struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.ID)

	rec = e.do(t, "POST", "/log-event", token, map[string]any{"user_id": "u1"})
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)

	rec = e.do(t, "GET", "/stats/task-completion", token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var stats core.CompletionStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, int64(1), stats.TotalEventsLogged)
	require.Equal(t, int64(1), stats.CompletedTasksCount)
}

func TestSendNotification(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()
	token := e.token(t, "u1", "maria")

	rec := e.do(t, "POST", "/send-notification", token, map[string]any{
		"recipient": "dev@example.com",
		"subject":   "aviso",
		"message":   "hola",
	})
	require.Equal(t, nethttp.StatusAccepted, rec.Code)
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.ID)

	rec = e.do(t, "POST", "/send-notification", token, map[string]any{"subject": "sin destinatario"})
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	e := newEnv(t, nethttp.StatusOK)
	defer e.cleanup()

	rec := e.do(t, "GET", "/healthz", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec = e.do(t, "GET", "/readyz", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
}
