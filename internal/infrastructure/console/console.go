// Package console renders the panel view-models as terminal text and turns
// navigation into printed redirects plus a process exit code.
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitError        = 1
	ExitAuthRequired = 2
	ExitForbidden    = 3
)

// Navigator implements ports.Navigator for a terminal session.
type Navigator struct {
	mu    sync.Mutex
	out   io.Writer
	last  domain.Surface
	count int
}

func NewNavigator(out io.Writer) *Navigator {
	return &Navigator{out: out}
}

func (n *Navigator) Navigate(_ context.Context, to domain.Surface) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = to
	n.count++
	switch to {
	case domain.SurfaceLogin:
		fmt.Fprintln(n.out, "→ login: inicie sesión con «panel login»")
	default:
		fmt.Fprintf(n.out, "→ %s\n", to)
	}
}

// Redirected reports the last surface navigated to, if any.
func (n *Navigator) Redirected() (domain.Surface, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last, n.count > 0
}

// ExitCode maps the navigation history to a process exit code.
func (n *Navigator) ExitCode() int {
	last, ok := n.Redirected()
	if ok && last == domain.SurfaceLogin {
		return ExitAuthRequired
	}
	return ExitOK
}

func RenderHeader(w io.Writer, h domain.Header) {
	fmt.Fprintf(w, "[%s] %s · %s\n", h.Avatar, h.Name, h.RoleLabel)
	if h.ShowUsersMenu {
		fmt.Fprintln(w, "    Menú: clientes · productos · pedidos · devoluciones · resumen-dia · usuarios")
		return
	}
	fmt.Fprintln(w, "    Menú: clientes · productos · pedidos · devoluciones · resumen-dia")
}

func RenderNotice(w io.Writer, n *domain.Notice) {
	if n == nil {
		return
	}
	var mark string
	switch n.Kind {
	case domain.NoticeSuccess:
		mark = "✔"
	case domain.NoticeError:
		mark = "✖"
	default:
		mark = "ℹ"
	}
	fmt.Fprintf(w, "%s %s\n", mark, n.Message)
}

func RenderLoginView(w io.Writer, v domain.LoginView) {
	switch {
	case v.Loading:
		fmt.Fprintln(w, "Ingresando...")
	case v.SubmitEnabled:
		fmt.Fprintln(w, "Ingrese usuario y contraseña.")
	}
	RenderNotice(w, v.Notice)
}

// RenderResponse prints the body indented, prefixed by the status on failure.
func RenderResponse(w io.Writer, r domain.Response) {
	if !r.Success {
		if r.Status == 0 {
			fmt.Fprintf(w, "✖ %s\n", r.Message())
			return
		}
		fmt.Fprintf(w, "✖ %d %s\n", r.Status, r.Message())
		return
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Body, "", "  "); err != nil {
		fmt.Fprintln(w, string(r.Body))
		return
	}
	fmt.Fprintln(w, buf.String())
}
