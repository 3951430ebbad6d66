package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/aquaflow/apps/api/echo"
	"github.com/trezcool/aquaflow/core/calendar"
	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/testutil"
)

func Test_paymentApi_create(t *testing.T) {
	env := setup(t)
	ana := testutil.CreateStudent(t, env.stdRepo, "Ana", 10, true)

	body := func(studentID int, refMonth, method string) []byte {
		return []byte(fmt.Sprintf(
			`{"aluno_id":%d,"valor":"150.00","data_pagamento":"2024-03-05","mes_referencia":%q,"forma_pagamento":%q}`,
			studentID, refMonth, method,
		))
	}
	tests := []httpTest{
		{
			name: "bad reference month", body: body(ana.ID, "03/2024", "pix"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"mes_referencia": "mês de referência deve estar no formato AAAA-MM"}),
		},
		{name: "unknown method", body: body(ana.ID, "2024-03", "cheque"), wantCode: http.StatusBadRequest},
		{
			name: "unknown student", body: body(999, "2024-03", "pix"), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Aluno não encontrado"}),
		},
		{name: "ok", body: body(ana.ID, "2024-03", " PIX "), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/pagamentos"
			tt.token = env.adminToken
			rec := env.serve(t, tt)

			if tt.wantCode == http.StatusCreated {
				var p payment.Payment
				unmarshal(t, rec, &p)
				assert.Positive(t, p.ID)
				assert.Equal(t, ana.ID, p.StudentID)
				assert.Equal(t, "2024-03-05", p.PaidOn.String())
				assert.Equal(t, payment.MethodPix, p.Method)
			}
		})
	}
}

func Test_paymentApi_query(t *testing.T) {
	env := setup(t)
	ana := testutil.CreateStudent(t, env.stdRepo, "Ana", 10, true)
	bia := testutil.CreateStudent(t, env.stdRepo, "Bia", 10, true)

	jan := testutil.CreatePayment(t, env.payRepo, ana.ID, "150.00", calendar.NewDate(2024, 1, 10), payment.MethodPix)
	feb := testutil.CreatePayment(t, env.payRepo, ana.ID, "150.00", calendar.NewDate(2024, 2, 10), payment.MethodCash)
	febBia := testutil.CreatePayment(t, env.payRepo, bia.ID, "120.00", calendar.NewDate(2024, 2, 12), payment.MethodPix)

	tests := []httpTest{
		{name: "all, most recent first", path: "/api/pagamentos", wantCode: http.StatusOK, wantData: marchallList(t, febBia, feb, jan)},
		{name: "aluno_id", path: fmt.Sprintf("/api/pagamentos?aluno_id=%d", ana.ID), wantCode: http.StatusOK, wantData: marchallList(t, feb, jan)},
		{
			name: "date range is inclusive", path: "/api/pagamentos?data_inicio=2024-02-10&data_fim=2024-02-11",
			wantCode: http.StatusOK, wantData: marchallList(t, feb),
		},
		{
			name: "bad date", path: "/api/pagamentos?data_inicio=10/02/2024", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "parâmetro data_inicio deve estar no formato AAAA-MM-DD"}),
		},
		{
			name: "bad aluno_id", path: "/api/pagamentos?aluno_id=x", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "parâmetro aluno_id inválido"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.token = env.adminToken
			env.serve(t, tt)
		})
	}
}

func Test_paymentApi_monthlyReport(t *testing.T) {
	env := setup(t)
	ana := testutil.CreateStudent(t, env.stdRepo, "Ana", 10, true)
	bia := testutil.CreateStudent(t, env.stdRepo, "Bia", 10, true)
	testutil.CreatePayment(t, env.payRepo, ana.ID, "150.00", calendar.NewDate(2024, 1, 10), payment.MethodPix)
	testutil.CreatePayment(t, env.payRepo, ana.ID, "150.00", calendar.NewDate(2024, 2, 10), payment.MethodPix)
	testutil.CreatePayment(t, env.payRepo, bia.ID, "120.50", calendar.NewDate(2024, 2, 12), payment.MethodPix)
	testutil.CreatePayment(t, env.payRepo, bia.ID, "30.00", calendar.NewDate(2024, 2, 20), payment.MethodCash)
	testutil.CreatePayment(t, env.payRepo, bia.ID, "99.00", calendar.NewDate(2023, 12, 20), payment.MethodCash)

	rec := env.serve(t, httpTest{path: "/api/pagamentos/relatorio-mensal?ano=2024&mes=2", token: env.adminToken, wantCode: http.StatusOK})
	var lines []payment.ReportLine
	unmarshal(t, rec, &lines)
	if assert.Len(t, lines, 2) {
		assert.Equal(t, "2024-02", lines[0].ReferenceMonth)
		assert.Equal(t, payment.MethodCash, lines[0].Method)
		assert.Equal(t, 1, lines[0].Count)
		assert.Equal(t, payment.MethodPix, lines[1].Method)
		assert.Equal(t, 2, lines[1].Count)
		assert.Equal(t, "270.5", lines[1].Total.String())
	}

	rec = env.serve(t, httpTest{path: "/api/pagamentos/relatorio-mensal?ano=2024", token: env.adminToken, wantCode: http.StatusOK})
	lines = nil
	unmarshal(t, rec, &lines)
	assert.Len(t, lines, 3, "2024-02 cash and pix, 2024-01 pix")
}

func Test_paymentApi_updateDestroy(t *testing.T) {
	env := setup(t)
	ana := testutil.CreateStudent(t, env.stdRepo, "Ana", 10, true)
	p := testutil.CreatePayment(t, env.payRepo, ana.ID, "150.00", calendar.NewDate(2024, 1, 10), payment.MethodPix)
	path := fmt.Sprintf("/api/pagamentos/%d", p.ID)

	rec := env.serve(t, httpTest{
		method: http.MethodPut, path: path, token: env.adminToken, wantCode: http.StatusOK,
		body: []byte(`{"valor":"140.00","observacoes":"desconto"}`),
	})
	var updated payment.Payment
	unmarshal(t, rec, &updated)
	assert.Equal(t, "140", updated.Amount.String())
	assert.Equal(t, "desconto", updated.Notes.String)
	assert.Equal(t, p.ReferenceMonth, updated.ReferenceMonth)

	env.serve(t, httpTest{
		method: http.MethodPut, path: path, token: env.adminToken, wantCode: http.StatusNotFound,
		body: []byte(`{"aluno_id":999}`),
	})
	env.serve(t, httpTest{
		method: http.MethodDelete, path: path, token: env.adminToken, wantCode: http.StatusOK,
		wantData: marchallObj(t, DeletedResponse{Message: "Pagamento excluído com sucesso", ID: p.ID}),
	})
	env.serve(t, httpTest{path: path, token: env.adminToken, wantCode: http.StatusNotFound})
}
