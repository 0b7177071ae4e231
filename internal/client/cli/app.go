package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/qrattend/internal/client/auth"
	"github.com/dmitrijs2005/qrattend/internal/client/client"
	"github.com/dmitrijs2005/qrattend/internal/client/config"
	"github.com/dmitrijs2005/qrattend/internal/client/countdown"
	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/scheduler"
	"github.com/dmitrijs2005/qrattend/internal/client/services"
	"github.com/dmitrijs2005/qrattend/internal/client/storage"
	"github.com/dmitrijs2005/qrattend/internal/logging"

	_ "modernc.org/sqlite"
)

// qrSurface is the countdown surface shown in the prompt.
const qrSurface = "qr"

type App struct {
	config         *config.Config
	authService    services.AuthService
	teacherService services.TeacherService
	studentService services.StudentService
	store          *storage.Store
	countdowns     *countdown.Controller
	status         *statusSurface
	log            logging.Logger
	db             *sql.DB

	reader *bufio.Reader
	out    io.Writer

	mu       sync.Mutex
	identity *models.Identity
	outcomes map[models.Role]auth.Outcome
	classes  []models.Class
	lastQR   *models.QrSession
	report   *models.AttendanceReport
}

// NewApp opens the local store and wires the HTTP client and the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(os.Stderr, c.LogLevel)

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "err", err)
		return nil, err
	}

	store := storage.Open(db, log)
	cache := storage.NewIdentityCache(store)

	h, err := client.NewHTTPClient(c.ServerURL,
		client.WithCredentials(cache),
		client.WithLogger(log),
		client.WithTimeout(c.RequestTimeout),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	api := client.NewAPIClient(h)

	a := newApp(
		services.NewAuthService(api, cache, log),
		services.NewTeacherService(api, store, log),
		services.NewStudentService(api, c.ScanTimeout, log),
		store,
		scheduler.Real{},
		log,
		bufio.NewReader(os.Stdin),
		os.Stdout,
	)
	a.config = c
	a.db = db
	return a, nil
}

func newApp(as services.AuthService, ts services.TeacherService, ss services.StudentService, store *storage.Store,
	sched scheduler.Scheduler, log logging.Logger, reader *bufio.Reader, out io.Writer) *App {
	return &App{
		authService:    as,
		teacherService: ts,
		studentService: ss,
		store:          store,
		countdowns:     countdown.NewController(sched),
		status:         &statusSurface{},
		log:            log,
		reader:         reader,
		out:            out,
		outcomes:       make(map[models.Role]auth.Outcome),
	}
}

// Close stops running countdowns and closes the local store.
func (a *App) Close() error {
	a.countdowns.StopAll()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity != nil
}

func (a *App) currentIdentity() (models.Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.identity == nil {
		return models.Identity{}, false
	}
	return *a.identity, true
}

// setIdentity starts a new resolution context: outcomes resolved for the
// previous identity are forgotten.
func (a *App) setIdentity(ident *models.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identity = ident
	a.outcomes = make(map[models.Role]auth.Outcome)
	a.classes = nil
	a.report = nil
	if ident == nil {
		a.lastQR = nil
	}
}
