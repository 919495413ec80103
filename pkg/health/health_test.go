package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(name string) Checker {
	return CheckFunc{CheckName: name, Fn: func(context.Context) error { return nil }}
}

func failing(name string) Checker {
	return CheckFunc{CheckName: name, Fn: func(context.Context) error { return errors.New("down") }}
}

func TestCheckerRegistry_AllHealthy(t *testing.T) {
	r := NewCheckerRegistry()
	r.Register(ok("a"))
	r.Register(ok("b"))

	h := r.Check(context.Background())
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Len(t, h.Checks, 2)
}

func TestCheckerRegistry_OneFailing(t *testing.T) {
	r := NewCheckerRegistry()
	r.Register(ok("a"))
	r.Register(failing("b"))

	h := r.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Equal(t, StatusHealthy, h.Checks["a"].Status)
	assert.Equal(t, "down", h.Checks["b"].Message)
}

func TestCheckerRegistry_Empty(t *testing.T) {
	h := NewCheckerRegistry().Check(context.Background())
	assert.Equal(t, StatusHealthy, h.Status)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tc := range []struct {
		name    string
		checker Checker
		code    int
	}{
		{"healthy", ok("broker"), http.StatusOK},
		{"unhealthy", failing("broker"), http.StatusServiceUnavailable},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := NewCheckerRegistry()
			r.Register(tc.checker)
			router := gin.New()
			router.GET("/ready", Handler(r))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tc.code, w.Code)

			var body Health
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body.Checks, "broker")
		})
	}
}

func TestKafkaChecker_NoBrokers(t *testing.T) {
	err := NewKafkaChecker(nil).Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestKafkaChecker_Unreachable(t *testing.T) {
	err := NewKafkaChecker([]string{"127.0.0.1:1"}).Check(context.Background())
	assert.Error(t, err)
}
