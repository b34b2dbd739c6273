package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/auth"
	"github.com/exceptionzofficial/testing-backend-akshaya/config"
	"github.com/exceptionzofficial/testing-backend-akshaya/events"
	"github.com/exceptionzofficial/testing-backend-akshaya/handlers"
	"github.com/exceptionzofficial/testing-backend-akshaya/notify"
	"github.com/exceptionzofficial/testing-backend-akshaya/routes"
	"github.com/exceptionzofficial/testing-backend-akshaya/service"
	"github.com/exceptionzofficial/testing-backend-akshaya/store/storetest"
	"github.com/exceptionzofficial/testing-backend-akshaya/throttle"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Error   string          `json:"error"`
	Code    int             `json:"code"`
}

type testServer struct {
	router *gin.Engine
	coord  *service.Coordinator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	st := storetest.New(t)
	pub := events.Noop{}
	issuer := auth.NewIssuer(config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "test"})

	ledger := service.NewOrderLedger(st, pub, log)
	coord := service.NewCoordinator(st, ledger, notify.NewNoop(log), pub, time.Second, log)
	t.Cleanup(coord.Wait)

	h := handlers.New(handlers.Deps{
		Registry:    service.NewRegistry(st, issuer, throttle.Noop{}, pub, log),
		Riders:      service.NewRiderDirectory(st, pub, log),
		Orders:      ledger,
		Coordinator: coord,
		Catalog:     service.NewCatalog(st, log),
		DB:          st,
	}, log)

	r := gin.New()
	routes.SetupRoutes(r, h, issuer, log)
	return &testServer{router: r, coord: coord}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type authData struct {
	Token string `json:"token"`
	User  struct {
		Phone   string  `json:"phone"`
		Role    string  `json:"role"`
		RiderID *string `json:"riderId"`
	} `json:"user"`
	Rider *struct {
		RiderID string `json:"riderId"`
		Status  string `json:"status"`
	} `json:"rider"`
}

func (s *testServer) registerUser(t *testing.T, phone string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Asha", "phone": phone, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	return decode[authData](t, env.Data).Token
}

func (s *testServer) registerRider(t *testing.T, phone string) (token, riderID string) {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/auth/register-rider", "", map[string]string{
		"name": "Ravi", "phone": phone, "password": "secret1",
		"vehicleType": "Bike", "vehicleNumber": "KA01AB1234",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	data := decode[authData](t, env.Data)
	require.NotNil(t, data.Rider)
	return data.Token, data.Rider.RiderID
}

var orderBody = map[string]any{
	"items":       []map[string]any{{"itemId": "M1", "name": "Veg Thali", "qty": 1, "price": 150}},
	"customer":    map[string]any{"name": "Asha", "phone": "9876543210", "address": "12 MG Road"},
	"totalAmount": "150",
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	token := s.registerUser(t, "9876543210")

	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Dup", "phone": "9876543210", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusConflict, env.Code)

	code, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"phone": "9876543210", "password": "wrong1",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"phone": "9876543210", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, decode[authData](t, env.Data).Token)

	code, env = s.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "passwordHash")
	profile := decode[struct {
		User struct {
			Phone string `json:"phone"`
		} `json:"user"`
		TokenExpiresAt time.Time `json:"tokenExpiresAt"`
	}](t, env.Data)
	assert.Equal(t, "9876543210", profile.User.Phone)
	assert.WithinDuration(t, time.Now().Add(time.Hour), profile.TokenExpiresAt, time.Minute)

	code, _ = s.do(t, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodPost, "/api/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRegisterRiderDuplicatePhone(t *testing.T) {
	s := newTestServer(t)
	staff := s.registerUser(t, "9000000001")

	code, _ := s.do(t, http.MethodPost, "/api/auth/register-rider", "", map[string]string{
		"name": "Ravi", "phone": "9000000001", "password": "secret1",
		"vehicleType": "Bike", "vehicleNumber": "KA01AB1234",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, env := s.do(t, http.MethodGet, "/api/riders", staff, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Count)
	assert.Zero(t, *env.Count)
}

func TestOrderAssignmentFlow(t *testing.T) {
	s := newTestServer(t)
	staff := s.registerUser(t, "9876543210")
	riderToken, riderID := s.registerRider(t, "9000000001")

	code, env := s.do(t, http.MethodPost, "/api/orders", staff, orderBody)
	require.Equal(t, http.StatusCreated, code, env.Error)
	order := decode[struct {
		OrderID     string  `json:"orderId"`
		Status      string  `json:"status"`
		TotalAmount float64 `json:"totalAmount"`
	}](t, env.Data)
	assert.Equal(t, "placed", order.Status)
	assert.Equal(t, 150.0, order.TotalAmount)

	// Rider is offline after registration.
	code, _ = s.do(t, http.MethodPut, "/api/orders/"+order.OrderID+"/assign", staff, map[string]string{"riderId": riderID})
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodPut, "/api/riders/"+riderID+"/status", riderToken, map[string]string{"status": "available"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, _ = s.do(t, http.MethodPut, "/api/orders/"+order.OrderID+"/assign", riderToken, map[string]string{"riderId": riderID})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPut, "/api/orders/"+order.OrderID+"/assign", staff, map[string]string{"riderId": riderID})
	require.Equal(t, http.StatusOK, code, env.Error)
	assigned := decode[struct {
		Status    string `json:"status"`
		RiderID   string `json:"riderId"`
		RiderName string `json:"riderName"`
	}](t, env.Data)
	assert.Equal(t, "inProgress", assigned.Status)
	assert.Equal(t, riderID, assigned.RiderID)
	assert.Equal(t, "Ravi", assigned.RiderName)

	code, env = s.do(t, http.MethodPut, "/api/orders/"+order.OrderID+"/status", riderToken, map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(t, http.MethodPut, "/api/riders/"+riderID+"/status", riderToken, map[string]string{"status": "available"})
	require.Equal(t, http.StatusOK, code, env.Error)
	rider := decode[struct {
		TotalDeliveries int     `json:"totalDeliveries"`
		CurrentOrderID  *string `json:"currentOrderId"`
	}](t, env.Data)
	assert.Equal(t, 1, rider.TotalDeliveries)
	assert.Nil(t, rider.CurrentOrderID)

	code, env = s.do(t, http.MethodGet, "/api/riders/"+riderID+"/orders", riderToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, *env.Count)

	code, env = s.do(t, http.MethodGet, "/api/orders/status/delivered", staff, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, *env.Count)

	code, env = s.do(t, http.MethodGet, "/api/orders/stats", staff, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"delivered":1`)
}

func TestOrderErrors(t *testing.T) {
	s := newTestServer(t)
	staff := s.registerUser(t, "9876543210")

	code, env := s.do(t, http.MethodPost, "/api/orders", staff, map[string]any{"items": []any{}, "totalAmount": 10})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, env.Error)

	code, _ = s.do(t, http.MethodGet, "/api/orders/ORD404", staff, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPut, "/api/orders/ORD404/assign", staff, map[string]string{"riderId": "RDR1"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPut, "/api/orders/ORD404/assign", staff, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/orders/status/lost", staff, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, "/api/orders", staff, orderBody)
	require.Equal(t, http.StatusCreated, code)
	id := decode[struct {
		OrderID string `json:"orderId"`
	}](t, env.Data).OrderID

	code, _ = s.do(t, http.MethodPut, "/api/orders/"+id+"/status", staff, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, code)

	// Only allow-listed fields may be patched.
	code, _ = s.do(t, http.MethodPatch, "/api/orders/"+id, staff, map[string]any{"status": "delivered"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPatch, "/api/orders/"+id, staff, map[string]any{"notes": "no onions"})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Contains(t, string(env.Data), "no onions")
}

func TestOrderAmountMustBeFinite(t *testing.T) {
	s := newTestServer(t)
	staff := s.registerUser(t, "9876543210")

	for _, amount := range []string{"Infinity", "+Inf", "-Inf", "NaN"} {
		body := map[string]any{
			"items":       orderBody["items"],
			"customer":    orderBody["customer"],
			"totalAmount": amount,
		}
		code, env := s.do(t, http.MethodPost, "/api/orders", staff, body)
		assert.Equal(t, http.StatusBadRequest, code, amount)
		assert.Contains(t, env.Error, "is not a number")
	}

	code, env := s.do(t, http.MethodPost, "/api/menu", staff, map[string]any{"itemId": "M9", "name": "Dal", "price": "Infinity"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "is not a number")

	code, env = s.do(t, http.MethodPost, "/api/orders", staff, orderBody)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(t, http.MethodGet, "/api/orders", staff, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	code, env = s.do(t, http.MethodGet, "/api/menu", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, *env.Count)
}

func TestPlaceOrderWithMinimalItem(t *testing.T) {
	s := newTestServer(t)
	staff := s.registerUser(t, "9876543210")

	code, env := s.do(t, http.MethodPost, "/api/orders", staff, map[string]any{
		"items":       []map[string]any{{"name": "Thali"}},
		"customer":    map[string]any{"name": "Asha", "phone": "9876543210"},
		"totalAmount": 150,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	assert.Contains(t, string(env.Data), `"name":"Thali"`)
}

func TestRiderOwnership(t *testing.T) {
	s := newTestServer(t)
	tokenA, riderA := s.registerRider(t, "9000000001")
	_, riderB := s.registerRider(t, "9000000002")

	code, _ := s.do(t, http.MethodPut, "/api/riders/"+riderB+"/fcm-token", tokenA, map[string]string{"fcmToken": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPut, "/api/riders/"+riderA+"/fcm-token", tokenA, map[string]string{"fcmToken": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodPut, "/api/riders/"+riderA+"/fcm-token", tokenA, map[string]string{"fcmToken": "device-a"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, _ = s.do(t, http.MethodPatch, "/api/riders/"+riderA, tokenA, map[string]any{"totalDeliveries": 99})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPatch, "/api/riders/"+riderA, tokenA, map[string]any{"vehicleNumber": "KA02CD5678"})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Contains(t, string(env.Data), "KA02CD5678")

	code, _ = s.do(t, http.MethodPut, "/api/riders/"+riderA+"/status", tokenA, map[string]string{"status": "sleeping"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)
	staff := s.registerUser(t, "9876543210")
	riderToken, _ := s.registerRider(t, "9000000001")

	item := map[string]any{"itemId": "M1", "name": "Dal Fry", "price": 90, "category": "curry", "isVeg": true}

	code, _ := s.do(t, http.MethodPost, "/api/menu", "", item)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/menu", riderToken, item)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodPost, "/api/menu", staff, item)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, _ = s.do(t, http.MethodPost, "/api/menu", staff, item)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/api/packages", staff, map[string]any{"itemId": "P1", "name": "Box", "price": 200})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/menu?isVeg=true", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, *env.Count)

	code, _ = s.do(t, http.MethodGet, "/api/menu?isVeg=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/packages", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, *env.Count)

	code, env = s.do(t, http.MethodPatch, "/api/menu/M1", staff, map[string]any{"price": "95"})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Contains(t, string(env.Data), `"price":95`)

	code, _ = s.do(t, http.MethodDelete, "/api/menu/M1", staff, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/menu/M1", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStateMachineInfo(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/api/state-machine", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "inProgress")
	assert.Contains(t, string(env.Data), "on-delivery")
}
