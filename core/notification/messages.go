package notification

import (
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/aquaflow/core/billing"
)

type reminderData struct {
	Name     string
	Fee      decimal.Decimal
	DueDate  time.Time
	DaysLeft int
	DaysLate int
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "R$ " + d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("02/01/2006") },
}

var (
	dueSoonTmpl = template.Must(template.New("due_soon").Funcs(funcs).Parse(strings.TrimSpace(`
Olá, {{.Name}}! 👋

Este é um lembrete amigável sobre sua mensalidade de natação.

💰 *Valor:* {{money .Fee}}
📅 *Vencimento:* {{date .DueDate}}
⏰ *Faltam {{.DaysLeft}} dias para o vencimento*

Para manter suas aulas em dia, por favor realize o pagamento até a data de vencimento.

Caso já tenha efetuado o pagamento, desconsidere esta mensagem.

Obrigado! 🏊
Academia de Natação
`)))

	overdueTmpl = template.Must(template.New("overdue").Funcs(funcs).Parse(strings.TrimSpace(`
Olá, {{.Name}}! 👋

Identificamos que sua mensalidade de natação está em atraso.

💰 *Valor:* {{money .Fee}}
📅 *Vencimento:* {{date .DueDate}}
⚠️ *Dias em atraso:* {{.DaysLate}} dia(s)

Para regularizar sua situação e continuar aproveitando as aulas, por favor realize o pagamento o quanto antes.

Em caso de dúvidas ou dificuldades, entre em contato conosco.

Contamos com sua compreensão! 🏊
Academia de Natação
`)))
)

func renderReminder(kind billing.Reminder, data reminderData) (string, error) {
	tmpl := dueSoonTmpl
	if kind == billing.ReminderOverdue {
		tmpl = overdueTmpl
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", errors.Wrapf(err, "rendering %s message", kind)
	}
	return sb.String(), nil
}
