package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/aquaflow/apps/api/echo"
	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/calendar"
	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/core/student"
	"github.com/trezcool/aquaflow/testutil"
)

func Test_studentApi_create(t *testing.T) {
	env := setup(t)

	tests := []httpTest{
		{
			name: "required fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"nome_completo":  "este campo é obrigatório",
				"tipo_aula":      "este campo é obrigatório",
				"dia_vencimento": "este campo é obrigatório",
			}),
		},
		{
			name: "due day out of range", wantCode: http.StatusBadRequest,
			body: []byte(`{"nome_completo":"Ana","tipo_aula":"natacao","valor_mensalidade":"150.00","dia_vencimento":32}`),
		},
		{
			name: "contract ends before it starts", wantCode: http.StatusBadRequest,
			body: []byte(`{"nome_completo":"Ana","tipo_aula":"natacao","valor_mensalidade":"150.00","dia_vencimento":10,` +
				`"data_inicio_contrato":"2024-03-01","data_fim_contrato":"2024-02-01"}`),
		},
		{
			name: "unknown plan", wantCode: http.StatusNotFound,
			body:     []byte(`{"nome_completo":"Ana","tipo_aula":"natacao","valor_mensalidade":"150.00","dia_vencimento":10,"plano_id":42}`),
			wantData: marchallObj(t, httpErr{Error: "Plano não encontrado"}),
		},
		{
			name: "ok", wantCode: http.StatusCreated,
			body: []byte(`{"nome_completo":"  Ana Souza ","tipo_aula":"Natacao","valor_mensalidade":"150.00","dia_vencimento":31,` +
				`"telefone_whatsapp":"(11) 98765-4321"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/alunos"
			tt.token = env.adminToken
			rec := env.serve(t, tt)

			if tt.wantCode == http.StatusCreated {
				var s student.Student
				unmarshal(t, rec, &s)
				assert.Positive(t, s.ID)
				assert.Equal(t, "Ana Souza", s.FullName)
				assert.Equal(t, student.LessonSwimming, s.LessonType)
				assert.Equal(t, 31, s.DueDay)
				assert.True(t, s.Active)
				assert.Equal(t, "150", s.MonthlyFee.String())
			}
		})
	}
}

func Test_studentApi_query(t *testing.T) {
	env := setup(t)
	bia := testutil.CreateStudent(t, env.stdRepo, "Bia", 5, true)
	ana := testutil.CreateStudent(t, env.stdRepo, "Ana", 10, true)
	caio := testutil.CreateStudent(t, env.stdRepo, "Caio", 15, false)

	tests := []httpTest{
		{name: "all, by name", path: "/api/alunos", wantData: marchallList(t, ana, bia, caio)},
		{name: "ativo=true", path: "/api/alunos?ativo=true", wantData: marchallList(t, ana, bia)},
		{name: "ativo=false", path: "/api/alunos?ativo=false", wantData: marchallList(t, caio)},
		{name: "tipo_aula", path: "/api/alunos?tipo_aula=hidroginastica", wantData: marchallList(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.token = env.adminToken
			tt.wantCode = http.StatusOK
			env.serve(t, tt)
		})
	}
}

func Test_studentApi_retrieveUpdateDestroy(t *testing.T) {
	env := setup(t)
	ana := testutil.CreateStudent(t, env.stdRepo, "Ana", 10, true)
	path := fmt.Sprintf("/api/alunos/%d", ana.ID)
	notFound := marchallObj(t, httpErr{Error: "Aluno não encontrado"})

	env.serve(t, httpTest{path: path, token: env.adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, ana)})
	env.serve(t, httpTest{path: "/api/alunos/999", token: env.adminToken, wantCode: http.StatusNotFound, wantData: notFound})
	env.serve(t, httpTest{
		path: "/api/alunos/abc", token: env.adminToken, wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: "ID inválido"}),
	})

	rec := env.serve(t, httpTest{
		method: http.MethodPut, path: path, token: env.adminToken, wantCode: http.StatusOK,
		body: []byte(`{"dia_vencimento":20,"telefone_whatsapp":"11999990000"}`),
	})
	var updated student.Student
	unmarshal(t, rec, &updated)
	assert.Equal(t, 20, updated.DueDay)
	assert.Equal(t, "11999990000", updated.Phone.String)
	assert.Equal(t, ana.FullName, updated.FullName)

	env.serve(t, httpTest{
		method: http.MethodDelete, path: path, token: env.adminToken, wantCode: http.StatusOK,
		wantData: marchallObj(t, DeletedResponse{Message: "Aluno desativado com sucesso", ID: ana.ID}),
	})
	got, err := env.stdRepo.GetStudent(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.False(t, got.Active, "soft-deleted")
}

func Test_studentApi_delinquentsAndPayments(t *testing.T) {
	env := setup(t)
	today := calendar.DateOf(time.Now().In(core.NewTestConfig().Location()))
	never := testutil.CreateStudent(t, env.stdRepo, "Nunca Pagou", 10, true)
	late := testutil.CreateStudent(t, env.stdRepo, "Atrasado", 10, true)
	onTime := testutil.CreateStudent(t, env.stdRepo, "Em Dia", 10, true)
	testutil.CreateStudent(t, env.stdRepo, "Inativo", 10, false)

	old := testutil.CreatePayment(t, env.payRepo, late.ID, "150.00", calendar.DateOf(today.AddDate(0, 0, -60)), payment.MethodPix)
	recent := testutil.CreatePayment(t, env.payRepo, late.ID, "150.00", calendar.DateOf(today.AddDate(0, 0, -50)), payment.MethodCash)
	testutil.CreatePayment(t, env.payRepo, onTime.ID, "150.00", calendar.DateOf(today.AddDate(0, 0, -5)), payment.MethodPix)

	rec := env.serve(t, httpTest{path: "/api/alunos/inadimplentes", token: env.adminToken, wantCode: http.StatusOK})
	var delinquents []student.Delinquent
	unmarshal(t, rec, &delinquents)
	require.Len(t, delinquents, 2)

	assert.Equal(t, late.ID, delinquents[0].ID)
	assert.False(t, delinquents[0].NeverPaid)
	assert.Equal(t, 50, delinquents[0].DaysSinceLastPayment)
	assert.Equal(t, recent.PaidOn.String(), delinquents[0].LastPayment.String())

	assert.Equal(t, never.ID, delinquents[1].ID)
	assert.True(t, delinquents[1].NeverPaid)

	env.serve(t, httpTest{
		path: fmt.Sprintf("/api/alunos/%d/pagamentos", late.ID), token: env.adminToken,
		wantCode: http.StatusOK, wantData: marchallList(t, recent, old),
	})
	env.serve(t, httpTest{path: "/api/alunos/999/pagamentos", token: env.adminToken, wantCode: http.StatusNotFound})
}
