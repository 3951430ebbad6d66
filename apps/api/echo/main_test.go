package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/aquaflow/apps/api/echo"
	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/instructor"
	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/core/plan"
	"github.com/trezcool/aquaflow/core/schedule"
	"github.com/trezcool/aquaflow/core/student"
	"github.com/trezcool/aquaflow/core/user"
	"github.com/trezcool/aquaflow/services/logger"
	"github.com/trezcool/aquaflow/storage/database/inmem"
	"github.com/trezcool/aquaflow/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app        *Server
	tokens     *TokenIssuer
	usrRepo    user.Repository
	stdRepo    student.Repository
	payRepo    payment.Repository
	slotRepo   schedule.Repository
	admin      user.User
	adminToken string
}

// setup builds a server over a fresh in-memory database, with an admin already signed in.
func setup(t *testing.T) *testEnv {
	conf := core.NewTestConfig()
	db := inmemdb.Open()

	env := &testEnv{
		tokens:   NewTokenIssuer(conf),
		usrRepo:  inmemdb.NewUserRepository(db),
		stdRepo:  inmemdb.NewStudentRepository(db),
		payRepo:  inmemdb.NewPaymentRepository(db),
		slotRepo: inmemdb.NewScheduleRepository(db),
	}
	planRepo := inmemdb.NewPlanRepository(db)
	instrRepo := inmemdb.NewInstructorRepository(db)

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	instructor.InitValidators(validate, translator)

	env.app = NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logsvc.NewRollbarLogger(logsvc.NewLogrus(conf, io.Discard), conf),
		DBCheck:       func(context.Context) error { return nil },
		Validate:      validate,
		Translator:    translator,
		UserSvc:       user.NewService(env.usrRepo),
		StudentSvc:    student.NewService(env.stdRepo, planRepo),
		PaymentSvc:    payment.NewService(env.payRepo, env.stdRepo),
		ScheduleSvc:   schedule.NewService(env.slotRepo, instrRepo),
		PlanSvc:       plan.NewService(planRepo),
		InstructorSvc: instructor.NewService(instrRepo),
	})
	t.Cleanup(func() { _ = env.app.Close() })

	env.admin = testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@aquaflow.test", "s3cr3t-Pass", user.RoleAdmin, true)
	env.adminToken = env.getToken(t, env.admin)
	return env
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	token, err := env.tokens.Generate(env.tokens.Claims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

// serve runs tt against the server and checks the response code and, when set, its body.
func (env *testEnv) serve(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	env.app.ServeHTTP(rec, req)
	if tt.wantData != nil {
		checkCodeAndData(t, tt, rec)
	} else if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code; body %s", rec.Body.String())
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
