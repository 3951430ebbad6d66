package whatsappsvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/trezcool/aquaflow/core/notification"
)

// ConsoleService prints messages instead of sending them (DEV, TEST).
type ConsoleService struct {
	out io.Writer

	mu   sync.Mutex
	sent []Message
}

// Message is a text delivered by ConsoleService.
type Message struct {
	Phone string
	Text  string
}

var _ notification.Sender = (*ConsoleService)(nil)

func NewConsoleService(out io.Writer) *ConsoleService {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleService{out: out}
}

func (svc *ConsoleService) SendText(_ context.Context, phone, text string) error {
	number := FormatPhone(phone)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = append(svc.sent, Message{Phone: number, Text: text})
	_, err := fmt.Fprintf(svc.out, "WhatsApp to %s:\n%s\n\n", number, text)
	return err
}

func (svc *ConsoleService) Sent() []Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]Message(nil), svc.sent...)
}
