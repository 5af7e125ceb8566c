// Command panel is the terminal client of the distribution panel: it signs in
// against the backend, keeps the session between runs and loads pages.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
	"github.com/distribuidoracarol/panel/internal/core/service"
	"github.com/distribuidoracarol/panel/internal/infrastructure/config"
	"github.com/distribuidoracarol/panel/internal/infrastructure/console"
	"github.com/distribuidoracarol/panel/internal/infrastructure/gateway"
	boltstore "github.com/distribuidoracarol/panel/internal/infrastructure/storage/bolt"
	"github.com/distribuidoracarol/panel/internal/infrastructure/storage/memory"
	redisstore "github.com/distribuidoracarol/panel/internal/infrastructure/storage/redis"
	"github.com/distribuidoracarol/panel/pkg/logger"
)

const usage = `Uso: panel <comando> [opciones]

Comandos:
  login    [-u usuario] [-p contraseña]   iniciar sesión
  logout                                  cerrar sesión
  whoami                                  mostrar el usuario de la sesión
  profile                                 consultar el perfil en el servidor
  page     <nombre> [-fecha AAAA-MM-DD]   cargar una página (%s)
  request  [-X método] [-d json] <ruta>...  llamada directa a la API
  export   [-o archivo] [-fecha AAAA-MM-DD] descargar el resumen del día en PDF
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadClient(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(console.ExitError)
	}
	logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: os.Stderr})
	log := logger.Component("panel")

	os.Exit(run(ctx, cfg, log, os.Args[1:], os.Stdin, os.Stdout))
}

// app holds the collaborators of one CLI invocation.
type app struct {
	cfg      *config.ClientConfig
	log      zerolog.Logger
	out      io.Writer
	storage  ports.Storage
	closer   io.Closer
	sessions *service.SessionService
	nav      *console.Navigator
	notices  *service.NoticeBoard
	gw       *gateway.Client
	login    *service.LoginController
	guard    *service.Guard
}

func newApp(ctx context.Context, cfg *config.ClientConfig, log zerolog.Logger, out io.Writer) (*app, error) {
	storage, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, out: out, storage: storage, closer: closer}
	a.sessions = service.NewSessionService(storage, log)
	a.nav = console.NewNavigator(out)
	a.notices = service.NewNoticeBoard(time.Now)

	a.gw, err = gateway.New(gateway.Config{
		Origin:    cfg.Origin,
		APIPrefix: cfg.APIPrefix,
		Timeout:   cfg.Timeout,
	}, a.sessions, a.nav, log)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	a.login = service.NewLoginController(a.gw, a.sessions, a.nav, a.notices, cfg.RedirectDelay, log)
	a.guard = service.NewGuard(a.sessions, a.nav, a.notices, log)
	return a, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStorage(ctx context.Context, cfg *config.ClientConfig) (ports.Storage, io.Closer, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return memory.NewStore(), nopCloser{}, nil
	case config.StorageRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Storage.RedisAddr, DB: cfg.Storage.RedisDB})
		if err != nil {
			return nil, nil, err
		}
		s := redisstore.NewStore(client, cfg.Origin, cfg.Storage.RedisTTL)
		return s, s, nil
	default:
		s, err := boltstore.Open(cfg.Storage.Path, cfg.Origin)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, log zerolog.Logger, args []string, stdin io.Reader, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(out, usage, pageNames())
		return console.ExitError
	}

	a, err := newApp(ctx, cfg, log, out)
	if err != nil {
		fmt.Fprintf(out, "✖ %v\n", err)
		return console.ExitError
	}
	defer a.Close()

	cmd, rest := args[0], args[1:]
	var code int
	switch cmd {
	case "login":
		code = a.cmdLogin(ctx, rest, stdin)
	case "logout":
		code = a.cmdLogout(ctx)
	case "whoami":
		code = a.cmdWhoami(ctx)
	case "profile":
		code = a.cmdProfile(ctx)
	case "page":
		code = a.cmdPage(ctx, rest)
	case "request":
		code = a.cmdRequest(ctx, rest)
	case "export":
		code = a.cmdExport(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprintf(out, usage, pageNames())
		return console.ExitOK
	default:
		fmt.Fprintf(out, "✖ comando desconocido %q\n", cmd)
		fmt.Fprintf(out, usage, pageNames())
		return console.ExitError
	}

	if cmd != "logout" && code == console.ExitOK && a.nav.ExitCode() != console.ExitOK {
		return a.nav.ExitCode()
	}
	return code
}

func (a *app) cmdLogin(ctx context.Context, args []string, stdin io.Reader) int {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	user := fs.String("u", "", "usuario")
	pass := fs.String("p", "", "contraseña")
	if err := fs.Parse(args); err != nil {
		return console.ExitError
	}

	in := bufio.NewReader(stdin)
	if *user == "" {
		*user = prompt(a.out, in, "Usuario: ")
	}
	if *pass == "" {
		*pass = prompt(a.out, in, "Contraseña: ")
	}

	out := a.login.Submit(ctx, *user, *pass)
	console.RenderLoginView(a.out, a.login.View())
	if out.State != domain.LoginAuthenticated {
		return console.ExitError
	}
	if out.User != nil {
		console.RenderHeader(a.out, domain.NewHeader(*out.User))
	}
	return console.ExitOK
}

func prompt(out io.Writer, in *bufio.Reader, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func (a *app) cmdLogout(ctx context.Context) int {
	if err := a.login.Logout(ctx); err != nil {
		fmt.Fprintf(a.out, "✖ %v\n", err)
		return console.ExitError
	}
	fmt.Fprintln(a.out, "Sesión cerrada.")
	return console.ExitOK
}

func (a *app) cmdWhoami(ctx context.Context) int {
	header, ok := a.guard.Enter(ctx, domain.PageDashboard)
	if !ok {
		return console.ExitAuthRequired
	}
	console.RenderHeader(a.out, header)

	token, _ := a.sessions.Credential(ctx)
	if exp, ok := tokenExpiry(string(token)); ok {
		fmt.Fprintf(a.out, "    Sesión válida hasta %s\n", exp.Local().Format("2006-01-02 15:04"))
	}
	return console.ExitOK
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (a *app) cmdProfile(ctx context.Context) int {
	if _, ok := a.guard.Enter(ctx, domain.PageDashboard); !ok {
		return console.ExitAuthRequired
	}

	u, err := a.login.Profile(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			return console.ExitAuthRequired
		}
		fmt.Fprintf(a.out, "✖ %v\n", err)
		return console.ExitError
	}
	console.RenderHeader(a.out, domain.NewHeader(*u))
	if u.Email != "" {
		fmt.Fprintf(a.out, "    %s\n", u.Email)
	}
	return console.ExitOK
}

func (a *app) cmdPage(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(a.out, "✖ indique una página: %s\n", pageNames())
		return console.ExitError
	}
	entry, ok := pageLoads[args[0]]
	if !ok {
		fmt.Fprintf(a.out, "✖ página desconocida %q (%s)\n", args[0], pageNames())
		return console.ExitError
	}

	fs := flag.NewFlagSet("page", flag.ContinueOnError)
	fs.SetOutput(a.out)
	date := fs.String("fecha", "", "fecha AAAA-MM-DD")
	if err := fs.Parse(args[1:]); err != nil {
		return console.ExitError
	}

	header, ok := a.guard.Enter(ctx, entry.page)
	if !ok {
		console.RenderNotice(a.out, a.notices.Current())
		if last, _ := a.nav.Redirected(); last == domain.SurfaceDashboard {
			return console.ExitForbidden
		}
		return console.ExitAuthRequired
	}
	console.RenderHeader(a.out, header)

	paths := make([]string, len(entry.paths))
	for i, p := range entry.paths {
		if entry.page == domain.PageResumenDia || entry.page == domain.PageDashboard {
			p = withDate(p, *date)
		}
		paths[i] = p
	}
	return a.renderAll(paths, gateway.FetchAll(ctx, a.gw, paths...))
}

func (a *app) cmdRequest(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	fs.SetOutput(a.out)
	method := fs.String("X", http.MethodGet, "método HTTP")
	data := fs.String("d", "", "cuerpo JSON")
	if err := fs.Parse(args); err != nil {
		return console.ExitError
	}
	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintln(a.out, "✖ indique al menos una ruta")
		return console.ExitError
	}

	m := strings.ToUpper(*method)
	if m == http.MethodGet && *data == "" && len(paths) > 1 {
		return a.renderAll(paths, gateway.FetchAll(ctx, a.gw, paths...))
	}

	opts := ports.RequestOptions{Method: m}
	if *data != "" {
		if !json.Valid([]byte(*data)) {
			fmt.Fprintln(a.out, "✖ el cuerpo -d no es JSON válido")
			return console.ExitError
		}
		opts.Body = json.RawMessage(*data)
	}

	responses := make([]domain.Response, len(paths))
	for i, p := range paths {
		responses[i] = a.gw.Request(ctx, p, opts)
	}
	return a.renderAll(paths, responses)
}

func (a *app) cmdExport(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(a.out)
	date := fs.String("fecha", time.Now().Format("2006-01-02"), "fecha AAAA-MM-DD")
	output := fs.String("o", "", "archivo de salida")
	if err := fs.Parse(args); err != nil {
		return console.ExitError
	}
	if *output == "" {
		*output = fmt.Sprintf("resumen_%s.pdf", *date)
	}

	if _, ok := a.guard.Enter(ctx, domain.PageResumenDia); !ok {
		return console.ExitAuthRequired
	}

	resp, err := a.download(ctx, withDate(summaryPDFPath, *date), *output)
	if err != nil {
		fmt.Fprintf(a.out, "✖ %v\n", err)
		return console.ExitError
	}
	if !resp.Success {
		console.RenderResponse(a.out, resp)
		return console.ExitError
	}

	var summary struct {
		Bytes int64 `json:"bytes"`
	}
	_ = resp.Decode(&summary)
	fmt.Fprintf(a.out, "✔ %s (%d bytes)\n", *output, summary.Bytes)
	return console.ExitOK
}

func (a *app) renderAll(paths []string, responses []domain.Response) int {
	code := console.ExitOK
	for i, resp := range responses {
		if len(responses) > 1 {
			fmt.Fprintf(a.out, "── %s\n", paths[i])
		}
		console.RenderResponse(a.out, resp)
		if !resp.Success {
			code = console.ExitError
		}
	}
	return code
}

func pageNames() string {
	names := make([]string, 0, len(pageLoads))
	for n := range pageLoads {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// download writes path into a temp file next to dest and renames it over dest
// only when the export succeeded. An existing dest is untouched otherwise.
func (a *app) download(ctx context.Context, path, dest string) (domain.Response, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return domain.Response{}, err
	}
	defer os.Remove(tmp.Name())

	resp := a.gw.Download(ctx, path, tmp)
	if err := tmp.Close(); err != nil {
		return domain.Response{}, err
	}
	if !resp.Success {
		return resp, nil
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return domain.Response{}, err
	}
	return resp, nil
}
