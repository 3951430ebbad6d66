package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/aquaflow/apps/api/echo"
	"github.com/trezcool/aquaflow/core/user"
	"github.com/trezcool/aquaflow/testutil"
)

func Test_authApi_login(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Recepção", "recep", "recep@aquaflow.test", "s3cr3t-Pass", user.RoleReceptionist, true)
	testutil.CreateUser(t, env.usrRepo, "Antigo", "antigo", "antigo@aquaflow.test", "s3cr3t-Pass", user.RoleReceptionist, false)

	body := func(email, pwd string) []byte {
		return marchallObj(t, LoginRequest{Email: email, Password: pwd})
	}
	tests := []httpTest{
		{
			name: "missing fields", body: body("", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "este campo é obrigatório", "password": "este campo é obrigatório"}),
		},
		{
			name: "unknown email", body: body("nobody@aquaflow.test", "s3cr3t-Pass"), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "Email ou senha incorretos"}),
		},
		{
			name: "wrong password", body: body("recep@aquaflow.test", "wrong"), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "Email ou senha incorretos"}),
		},
		{
			name: "inactive user", body: body("antigo@aquaflow.test", "s3cr3t-Pass"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Usuário inativo. Contate o administrador."}),
		},
		{name: "by email", body: body(" RECEP@aquaflow.test ", "s3cr3t-Pass"), wantCode: http.StatusOK},
		{name: "by username", body: body("recep", "s3cr3t-Pass"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/auth/login"
			rec := env.serve(t, tt)

			if tt.wantCode == http.StatusOK {
				var res TokenResponse
				unmarshal(t, rec, &res)
				assert.NotEmpty(t, res.AccessToken)
				assert.Equal(t, "bearer", res.TokenType)
				assert.Equal(t, int64(24*60*60), res.ExpiresIn)
				assert.Equal(t, "recep", res.User.Username)
				assert.True(t, res.User.LastLogin.Valid)
			}
		})
	}
}

func Test_authApi_me(t *testing.T) {
	env := setup(t)
	gone := testutil.CreateUser(t, env.usrRepo, "Gone", "gone", "gone@aquaflow.test", "", user.RoleReceptionist, false)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "garbage token", token: "not-a-jwt", wantCode: http.StatusUnauthorized},
		{
			name: "deactivated user", token: env.getToken(t, gone), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Usuário inativo"}),
		},
		{
			name: "deleted user", token: env.getToken(t, user.User{ID: 999, Username: "ghost"}), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "Usuário não encontrado"}),
		},
		{name: "ok", token: env.adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, env.admin)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.path = "/api/auth/me"
			env.serve(t, tt)
		})
	}
}

func Test_authApi_refresh(t *testing.T) {
	env := setup(t)

	rec := env.serve(t, httpTest{method: http.MethodPost, path: "/api/auth/refresh", token: env.adminToken, wantCode: http.StatusOK})
	var res TokenResponse
	unmarshal(t, rec, &res)
	require.NotEmpty(t, res.AccessToken)

	// the renewed token is accepted
	env.serve(t, httpTest{path: "/api/auth/me", token: res.AccessToken, wantCode: http.StatusOK})
}

func TestServer_roles(t *testing.T) {
	env := setup(t)
	recep := testutil.CreateUser(t, env.usrRepo, "Recepção", "recep", "recep@aquaflow.test", "", user.RoleReceptionist, true)
	aluno := testutil.CreateUser(t, env.usrRepo, "Aluno", "aluno", "aluno@aquaflow.test", "", user.RoleStudent, true)
	forbidden := marchallObj(t, httpErr{Error: "Acesso negado"})

	tests := []httpTest{
		{name: "users: admin", path: "/api/users", token: env.adminToken, wantCode: http.StatusOK},
		{name: "users: recepcionista", path: "/api/users", token: env.getToken(t, recep), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "alunos: recepcionista", path: "/api/alunos", token: env.getToken(t, recep), wantCode: http.StatusOK},
		{name: "alunos: aluno", path: "/api/alunos", token: env.getToken(t, aluno), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "horarios: aluno", path: "/api/horarios", token: env.getToken(t, aluno), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "pagamentos: no token", path: "/api/pagamentos", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.serve(t, tt)
		})
	}
}

func TestServer_homeAndHealth(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/health")
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"status":"healthy","database":"ok"}`)}, rec)

	req, rec = newRequest(http.MethodGet, "/")
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`{"message":"Bem-vindo à API AquaFlow!","version":"test"}`),
	}, rec)
}
