package acceptance

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/careerforge/identity-service/internal/dto"
)

// connect initiates the provider flow and returns the state nonce
// extracted from the authorization URL
func (s *Suite) connect(cookie *http.Cookie) string {
	resp := s.doWithSession("POST", "/api/v1/provider/connect", cookie, nil)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var connectResp dto.ConnectResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&connectResp))

	parsed, err := url.Parse(connectResp.AuthorizationURL)
	s.Require().NoError(err)

	s.Require().NotEmpty(connectResp.State)
	s.Require().Equal(connectResp.State, parsed.Query().Get("state"))
	return connectResp.State
}

func (s *Suite) callback(code, state string) *http.Response {
	resp, err := http.Get(s.BaseURL + "/api/v1/provider/callback?code=" + url.QueryEscape(code) + "&state=" + url.QueryEscape(state))
	s.Require().NoError(err)
	return resp
}

func (s *Suite) connectionStatus(cookie *http.Cookie) dto.ConnectionStatusResponse {
	resp := s.doWithSession("GET", "/api/v1/provider/status", cookie, nil)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var status dto.ConnectionStatusResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&status))
	return status
}

func (s *Suite) TestProvider_ConnectCallbackFlow() {
	resp := s.signup("connector@example.com", "Password123", "")
	resp.Body.Close()
	_, cookie := s.login("connector@example.com", "Password123")

	s.False(s.connectionStatus(cookie).IsConnected)

	state := s.connect(cookie)

	cbResp := s.callback("good-code", state)
	cbResp.Body.Close()
	s.Equal(http.StatusOK, cbResp.StatusCode)
	s.Equal(int64(1), s.Provider.exchangeCalls.Load())

	status := s.connectionStatus(cookie)
	s.True(status.IsConnected)
	s.NotEmpty(status.ConnectedAt)
}

func (s *Suite) TestProvider_CallbackStateIsSingleUse() {
	resp := s.signup("replay@example.com", "Password123", "")
	resp.Body.Close()
	_, cookie := s.login("replay@example.com", "Password123")

	state := s.connect(cookie)

	first := s.callback("good-code", state)
	first.Body.Close()
	s.Equal(http.StatusOK, first.StatusCode)

	second := s.callback("good-code", state)
	defer second.Body.Close()
	s.Equal(http.StatusBadRequest, second.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(second.Body).Decode(&errResp))
	s.Equal("INVALID_OR_EXPIRED_STATE", errResp.Error)

	// Replay never reached the provider
	s.Equal(int64(1), s.Provider.exchangeCalls.Load())
}

func (s *Suite) TestProvider_CallbackGarbageState() {
	resp := s.callback("any-code", "garbage-state")
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("INVALID_OR_EXPIRED_STATE", errResp.Error)
}

func (s *Suite) TestProvider_ConnectWhileConnected() {
	resp := s.signup("twice@example.com", "Password123", "")
	resp.Body.Close()
	_, cookie := s.login("twice@example.com", "Password123")

	state := s.connect(cookie)
	cbResp := s.callback("good-code", state)
	cbResp.Body.Close()

	again := s.doWithSession("POST", "/api/v1/provider/connect", cookie, nil)
	defer again.Body.Close()

	s.Equal(http.StatusConflict, again.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(again.Body).Decode(&errResp))
	s.Equal("ALREADY_CONNECTED", errResp.Error)
}

func (s *Suite) TestProvider_TokenRefreshesNearExpiry() {
	resp := s.signup("refresher@example.com", "Password123", "")
	resp.Body.Close()
	_, cookie := s.login("refresher@example.com", "Password123")

	state := s.connect(cookie)
	cbResp := s.callback("good-code", state)
	cbResp.Body.Close()

	// The exchanged token expires inside the refresh-ahead window, so the
	// first read refreshes it
	tokenResp := s.doWithSession("GET", "/api/v1/provider/token", cookie, nil)
	defer tokenResp.Body.Close()
	s.Equal(http.StatusOK, tokenResp.StatusCode)

	var token dto.AccessTokenResponse
	s.Require().NoError(json.NewDecoder(tokenResp.Body).Decode(&token))
	s.Equal("refreshed-1", token.AccessToken)
	s.Equal(int64(1), s.Provider.refreshCalls.Load())

	// The refreshed token is long-lived; a second read serves it as is
	tokenResp2 := s.doWithSession("GET", "/api/v1/provider/token", cookie, nil)
	defer tokenResp2.Body.Close()
	s.Equal(http.StatusOK, tokenResp2.StatusCode)

	var token2 dto.AccessTokenResponse
	s.Require().NoError(json.NewDecoder(tokenResp2.Body).Decode(&token2))
	s.Equal(token.AccessToken, token2.AccessToken)
	s.Equal(int64(1), s.Provider.refreshCalls.Load())
}

func (s *Suite) TestProvider_TokenWithoutConnection() {
	resp := s.signup("unlinked@example.com", "Password123", "")
	resp.Body.Close()
	_, cookie := s.login("unlinked@example.com", "Password123")

	tokenResp := s.doWithSession("GET", "/api/v1/provider/token", cookie, nil)
	defer tokenResp.Body.Close()

	s.Equal(http.StatusForbidden, tokenResp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(tokenResp.Body).Decode(&errResp))
	s.Equal("NOT_CONNECTED", errResp.Error)
}

func (s *Suite) TestProvider_TokenWithoutSession() {
	tokenResp := s.doWithSession("GET", "/api/v1/provider/token", nil, nil)
	defer tokenResp.Body.Close()

	s.Equal(http.StatusUnauthorized, tokenResp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(tokenResp.Body).Decode(&errResp))
	s.Equal("SESSION_EXPIRED_OR_MISSING", errResp.Error)
}

func (s *Suite) TestProvider_Disconnect() {
	resp := s.signup("leaver@example.com", "Password123", "")
	resp.Body.Close()
	_, cookie := s.login("leaver@example.com", "Password123")

	state := s.connect(cookie)
	cbResp := s.callback("good-code", state)
	cbResp.Body.Close()

	disconnect := s.doWithSession("DELETE", "/api/v1/provider/connection", cookie, nil)
	disconnect.Body.Close()
	s.Equal(http.StatusOK, disconnect.StatusCode)

	s.False(s.connectionStatus(cookie).IsConnected)

	// Disconnecting again reports the absent resource
	again := s.doWithSession("DELETE", "/api/v1/provider/connection", cookie, nil)
	defer again.Body.Close()

	s.Equal(http.StatusNotFound, again.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(again.Body).Decode(&errResp))
	s.Equal("NOT_CONNECTED", errResp.Error)
}
