package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/careerforge/identity-service/internal/dto"
)

func (s *Suite) signup(email, password, orgName string) *http.Response {
	body, _ := json.Marshal(dto.SignupRequest{
		Email:    email,
		Password: password,
		OrgName:  orgName,
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/signup",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	return resp
}

// login authenticates and returns the session cookie
func (s *Suite) login(email, password string) (*dto.MeResponse, *http.Cookie) {
	body, _ := json.Marshal(dto.LoginRequest{
		Email:    email,
		Password: password,
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var me dto.MeResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&me))

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "cf_session" {
			return &me, cookie
		}
	}

	s.Require().FailNow("login response is missing the session cookie")
	return nil, nil
}

func (s *Suite) doWithSession(method, path string, cookie *http.Cookie, body []byte) *http.Response {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, s.BaseURL+path, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, s.BaseURL+path, nil)
	}
	s.Require().NoError(err)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) TestSignup_Success() {
	resp := s.signup("signup@example.com", "Password123", "Acme")
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var signupResp dto.SignupResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&signupResp))

	s.Equal("signup@example.com", signupResp.User.Email)
	s.NotEmpty(signupResp.User.ID)
	s.Equal("Acme", signupResp.Organization.Name)
	s.NotEmpty(signupResp.Organization.ID)
	s.Equal("admin", signupResp.Role)
}

func (s *Suite) TestSignup_DefaultOrganization() {
	resp := s.signup("noorg@example.com", "Password123", "")
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var signupResp dto.SignupResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&signupResp))
	s.NotEmpty(signupResp.Organization.Name)
}

func (s *Suite) TestSignup_DuplicateEmail() {
	resp1 := s.signup("duplicate@example.com", "Password123", "")
	resp1.Body.Close()

	resp2 := s.signup("duplicate@example.com", "OtherPassword1", "")
	defer resp2.Body.Close()

	s.Equal(http.StatusConflict, resp2.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp2.Body).Decode(&errResp))
	s.Equal("DUPLICATE_EMAIL", errResp.Error)
}

func (s *Suite) TestSignup_InvalidEmail() {
	resp := s.signup("not-an-email", "Password123", "")
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestSignup_ShortPassword() {
	resp := s.signup("short@example.com", "short", "")
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_SetsSessionCookie() {
	resp := s.signup("login@example.com", "Password123", "Acme")
	resp.Body.Close()

	me, cookie := s.login("login@example.com", "Password123")

	s.Equal("login@example.com", me.User.Email)
	s.Equal("Acme", me.Organization.Name)
	s.Equal("admin", me.Role)
	s.True(cookie.HttpOnly)
	s.NotEmpty(cookie.Value)
}

func (s *Suite) TestLogin_InvalidCredentialsLookAlike() {
	resp := s.signup("victim@example.com", "Password123", "")
	resp.Body.Close()

	wrongPass := s.loginExpectingFailure("victim@example.com", "WrongPassword1")
	unknownEmail := s.loginExpectingFailure("nobody@example.com", "WrongPassword1")

	// Same status, same code, same message: no existence oracle
	s.Equal("INVALID_CREDENTIALS", wrongPass.Error)
	s.Equal(wrongPass, unknownEmail)
}

func (s *Suite) loginExpectingFailure(email, password string) dto.ErrorResponse {
	body, _ := json.Marshal(dto.LoginRequest{Email: email, Password: password})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	return errResp
}

func (s *Suite) TestGetMe_Success() {
	resp := s.signup("getme@example.com", "Password123", "Acme")
	resp.Body.Close()

	_, cookie := s.login("getme@example.com", "Password123")

	meResp := s.doWithSession("GET", "/api/v1/auth/me", cookie, nil)
	defer meResp.Body.Close()

	s.Equal(http.StatusOK, meResp.StatusCode)

	var me dto.MeResponse
	s.Require().NoError(json.NewDecoder(meResp.Body).Decode(&me))
	s.Equal("getme@example.com", me.User.Email)
	s.Equal("Acme", me.Organization.Name)
}

func (s *Suite) TestGetMe_NoSession() {
	resp := s.doWithSession("GET", "/api/v1/auth/me", nil, nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("SESSION_EXPIRED_OR_MISSING", errResp.Error)
}

func (s *Suite) TestGetMe_GarbageSession() {
	cookie := &http.Cookie{Name: "cf_session", Value: "garbage-token"}

	resp := s.doWithSession("GET", "/api/v1/auth/me", cookie, nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogout_InvalidatesSession() {
	resp := s.signup("logout@example.com", "Password123", "")
	resp.Body.Close()

	_, cookie := s.login("logout@example.com", "Password123")

	logoutResp := s.doWithSession("POST", "/api/v1/auth/logout", cookie, nil)
	logoutResp.Body.Close()
	s.Equal(http.StatusOK, logoutResp.StatusCode)

	// Session is gone
	meResp := s.doWithSession("GET", "/api/v1/auth/me", cookie, nil)
	meResp.Body.Close()
	s.Equal(http.StatusUnauthorized, meResp.StatusCode)

	// Logging out again is still fine
	againResp := s.doWithSession("POST", "/api/v1/auth/logout", cookie, nil)
	againResp.Body.Close()
	s.Equal(http.StatusOK, againResp.StatusCode)
}

func (s *Suite) TestCreateOrganization() {
	resp := s.signup("orgmaker@example.com", "Password123", "First")
	resp.Body.Close()

	_, cookie := s.login("orgmaker@example.com", "Password123")

	body, _ := json.Marshal(dto.CreateOrgRequest{Name: "Second"})
	orgResp := s.doWithSession("POST", "/api/v1/orgs", cookie, body)
	defer orgResp.Body.Close()

	s.Equal(http.StatusCreated, orgResp.StatusCode)

	var org dto.OrgInfo
	s.Require().NoError(json.NewDecoder(orgResp.Body).Decode(&org))
	s.Equal("Second", org.Name)
	s.NotEmpty(org.ID)

	// The session still points at the original organization
	meResp := s.doWithSession("GET", "/api/v1/auth/me", cookie, nil)
	defer meResp.Body.Close()

	var me dto.MeResponse
	s.Require().NoError(json.NewDecoder(meResp.Body).Decode(&me))
	s.Equal("First", me.Organization.Name)
}
