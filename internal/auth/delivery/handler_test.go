package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authdomain "devnudge-backend/internal/auth/domain"
	authdto "devnudge-backend/internal/auth/dto"
	integrationdomain "devnudge-backend/internal/integration/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *stubAuth) AccountStatus(_ context.Context, userID string, p integrationdomain.Provider) (*authdto.AccountStatusResponse, error) {
	switch {
	case !p.Valid():
		return nil, authdomain.ErrUnsupportedProvider
	case userID == "broken":
		return nil, errors.New("db down")
	}
	return &authdto.AccountStatusResponse{Provider: p, Status: authdto.AccountConnected, HasAccessToken: true}, nil
}

func getStatus(userID, provider string) *httptest.ResponseRecorder {
	h := NewAuthHandler(&stubAuth{})
	r := gin.New()
	r.GET("/api/auth/accounts/:provider/status", func(c *gin.Context) {
		c.Set("userID", userID)
	}, h.AccountStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/accounts/"+provider+"/status", nil))
	return w
}

func TestAccountStatusHandler(t *testing.T) {
	w := getStatus("u1", "gmail")
	require.Equal(t, http.StatusOK, w.Code)
	var resp authdto.AccountStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, integrationdomain.ProviderGmail, resp.Provider)
	assert.Equal(t, "connected", resp.Status)
	assert.True(t, resp.HasAccessToken)

	assert.Equal(t, http.StatusBadRequest, getStatus("u1", "jira").Code)
	assert.Equal(t, http.StatusInternalServerError, getStatus("broken", "github").Code)
}
