package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/domain"
	"railbook/internal/modules/catalog"
	"railbook/internal/modules/inventory"
	"railbook/internal/modules/station"
	"railbook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationsCSV = `station_code,station_name,latitude,longitude
PUNE,Pune Junction,18.5286,73.8743
CSMT,Mumbai CST,18.9398,72.8355
`

const trainsCSV = `train_no,train_name,source,destination,departure,arrival,class_code,class_name,seats,tatkaal_seats
11007,Deccan Express,Pune Junction,Mumbai CST,07:15,11:05,SL,Sleeper,72,8
`

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testApp struct {
	t      *testing.T
	router *gin.Engine
	app    *App
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	users := repository.NewUserRepository(db)
	require.NoError(t, users.Migrate(context.Background()))

	stations, err := station.Parse(strings.NewReader(stationsCSV))
	require.NoError(t, err)
	trains, err := catalog.Parse(strings.NewReader(trainsCSV))
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:           "test",
		JWTSecret:        "test-secret",
		JWTTTL:           time.Hour,
		PendingTTL:       15 * time.Minute,
		AtomicAllocation: true,
		HoldOnPending:    true,
	}
	app, err := New(cfg, Deps{
		DB:       db,
		Stations: stations,
		Trains:   trains,
		Pending:  repository.NewMemoryPendingStore(),
		Picker:   inventory.CyclePicker(domain.BerthTypes...),
	})
	require.NoError(t, err)
	return &testApp{t: t, router: app.Router, app: app}
}

func (a *testApp) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (a *testApp) signup(username string) string {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{"username": username, "password": "secret1"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	out := decode[struct {
		Token string `json:"token"`
	}](a.t, env.Data)
	require.NotEmpty(a.t, out.Token)
	return out.Token
}

func TestAuthFlow(t *testing.T) {
	a := newTestApp(t)
	a.signup("alice")

	w, env := a.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{"username": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_USER", env.Error.Code)

	w, env = a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	w, env = a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[struct {
		Token string `json:"token"`
	}](t, env.Data).Token

	w, env = a.do(http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"alice"`)

	w, _ = a.do(http.MethodPost, "/api/v1/auth/external", "", gin.H{"external_id": "gh-1", "username": "octo"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w, _ = a.do(http.MethodPost, "/api/v1/auth/external", "", gin.H{"external_id": "gh-1", "username": "octo"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := newTestApp(t)

	w, env := a.do(http.MethodGet, "/api/v1/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_HEADER_MISSING", env.Error.Code)
}

func TestPublicReferenceRoutes(t *testing.T) {
	a := newTestApp(t)

	w, env := a.do(http.MethodGet, "/api/v1/stations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Pune Junction")

	w, env = a.do(http.MethodGet, "/api/v1/trains/search?source=Pune%20Junction&destination=Mumbai%20CST", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "11007")

	w, env = a.do(http.MethodGet, "/api/v1/trains/11007/availability?class=SL", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"remaining":72`)

	w, _ = a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReservedBookingLifecycle(t *testing.T) {
	a := newTestApp(t)
	token := a.signup("alice")

	w, env := a.do(http.MethodPost, "/api/v1/bookings/reserved", token, gin.H{
		"train_number": "11007",
		"class_code":   "SL",
		"passengers": []gin.H{
			{"name": "Asha", "age": 67, "gender": "F"},
			{"name": "Ravi", "age": 30, "gender": "M", "preference": "UB"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pending := decode[struct {
		Booking struct {
			Token  string  `json:"token"`
			Amount float64 `json:"amount"`
		} `json:"booking"`
	}](t, env.Data).Booking
	require.NotEmpty(t, pending.Token)
	assert.Greater(t, pending.Amount, 0.0)

	w, _ = a.do(http.MethodGet, "/api/v1/payments/"+pending.Token, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = a.do(http.MethodPost, "/api/v1/payments/"+pending.Token+"/confirm", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	issued := decode[struct {
		Kind   string `json:"kind"`
		Ticket struct {
			ID         string             `json:"id"`
			Status     string             `json:"status"`
			Passengers []domain.Passenger `json:"passengers"`
		} `json:"ticket"`
	}](t, env.Data)
	pnr := issued.Ticket.ID
	assert.Equal(t, "reserved", issued.Kind)
	assert.Len(t, pnr, 10)
	assert.Equal(t, "CONFIRMED", issued.Ticket.Status)
	require.Len(t, issued.Ticket.Passengers, 2)

	// the token is single use
	w, env = a.do(http.MethodPost, "/api/v1/payments/"+pending.Token+"/confirm", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = a.do(http.MethodGet, "/api/v1/tickets", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), pnr)

	w, _ = a.do(http.MethodGet, "/api/v1/tickets/"+pnr+"/qr", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), pnr)

	w, _ = a.do(http.MethodGet, "/api/v1/tickets/"+pnr+"/print", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	other := a.signup("bob")
	w, _ = a.do(http.MethodGet, "/api/v1/tickets/"+pnr, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = a.do(http.MethodPost, "/api/v1/tickets/"+pnr+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "CANCELLED")

	w, env = a.do(http.MethodPost, "/api/v1/tickets/"+pnr+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_CANCELLED", env.Error.Code)
}

func TestBookingErrors(t *testing.T) {
	a := newTestApp(t)
	token := a.signup("alice")

	w, env := a.do(http.MethodPost, "/api/v1/bookings/unreserved/quote", token, gin.H{
		"source": "Atlantis", "destination": "Mumbai CST", "train_category": "MAIL", "adults": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = a.do(http.MethodPost, "/api/v1/bookings/reserved", token, gin.H{
		"train_number": "11007", "class_code": "SL", "passengers": []gin.H{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = a.do(http.MethodPost, "/api/v1/bookings/reserved", token, gin.H{
		"train_number": "99999", "class_code": "SL",
		"passengers": []gin.H{{"name": "Asha", "age": 30, "gender": "F"}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = a.do(http.MethodGet, "/api/v1/tickets", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), `"id"`)
}

func TestPlatformTicketFlow(t *testing.T) {
	a := newTestApp(t)
	token := a.signup("alice")

	w, env := a.do(http.MethodPost, "/api/v1/bookings/platform", token, gin.H{"station": "PUNE", "persons": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decode[struct {
		Booking struct {
			Token  string  `json:"token"`
			Amount float64 `json:"amount"`
		} `json:"booking"`
	}](t, env.Data).Booking
	assert.Equal(t, 30.0, booking.Amount)

	w, env = a.do(http.MethodPost, "/api/v1/payments/"+booking.Token+"/confirm", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, string(env.Data), `"kind":"platform"`)
	assert.Contains(t, string(env.Data), "PLAT-")

	w, env = a.do(http.MethodGet, "/api/v1/tickets", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "PLAT-")
}

func TestCORSPreflight(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tickets", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
