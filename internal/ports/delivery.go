package ports

import (
	"context"
	"io"
)

// MailMessage is a plain-text email.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// Sheet is one worksheet of an exported workbook. Cells are written as text.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// WorkbookWriter renders sheets in order into w.
type WorkbookWriter interface {
	Write(w io.Writer, sheets []Sheet) error
}
