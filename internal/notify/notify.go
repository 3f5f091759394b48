// Package notify implementa el despacho de notificaciones como una cola
// explícita con entrega at-least-once y resultado observable, en lugar
// de un background task suelto sin supervisión.
package notify

import (
	"strings"

	"github.com/google/uuid"
)

// Tipos de notificación soportados. Hoy sólo cambia el sender; el tipo
// viaja para futuros canales (in-app, sms).
const (
	TypeEmail = "email"
	TypeInApp = "in-app"
)

// Notification es el payload a entregar.
type Notification struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"` // email o user id según el tipo
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Type      string `json:"type"`
}

// Validate normaliza y chequea el payload.
func (n *Notification) Validate() error {
	n.Recipient = strings.TrimSpace(n.Recipient)
	n.Subject = strings.TrimSpace(n.Subject)
	if n.Recipient == "" {
		return ErrRecipientRequired
	}
	if n.Subject == "" {
		return ErrSubjectRequired
	}
	if n.Type == "" {
		n.Type = TypeEmail
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Sender entrega una notificación por el canal que corresponda.
// Implementado por SMTPSender (producción) y LogSender (dev).
type Sender interface {
	Send(n Notification) error
}
