package router

import (
	"database/sql"
	"net/http"

	mem "pet-clinic-appointments/internal/adapters/storage/memory"
	pg "pet-clinic-appointments/internal/adapters/storage/postgres"
	"pet-clinic-appointments/internal/adapters/lock/memlock"
	"pet-clinic-appointments/internal/domain/appointments"
	"pet-clinic-appointments/internal/domain/owners"
	"pet-clinic-appointments/internal/domain/pets"
	"pet-clinic-appointments/internal/integrity"
	"pet-clinic-appointments/internal/middleware"
	"pet-clinic-appointments/internal/platform/logger"
	"pet-clinic-appointments/internal/platform/metrics"
	"pet-clinic-appointments/internal/platform/respond"
	"pet-clinic-appointments/internal/ports/auth"
	"pet-clinic-appointments/internal/ports/lock"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // nil => modo dev (headers X-Debug-*)

	// Si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// nil => lock en proceso.
	Locker lock.Locker

	// nil => registry propio.
	Metrics *metrics.Metrics

	// nil => sin rate limit.
	RateLimiter *middleware.RateLimiter

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	locker := opts.Locker
	if locker == nil {
		locker = memlock.New()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.AuthContext(opts.AuthVerifier, log))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	var (
		petRepo   pets.Repository
		ownerRepo owners.Repository
		apptRepo  appointments.Repository
	)
	if opts.DB != nil {
		petRepo = pg.NewPetsRepo(opts.DB)
		ownerRepo = pg.NewOwnersRepo(opts.DB)
		apptRepo = pg.NewAppointmentsRepo(opts.DB)
	} else {
		petRepo = mem.NewPetRepo()
		ownerRepo = mem.NewOwnerRepo()
		apptRepo = mem.NewAppointmentRepo()
	}

	// El guard solo lee repos, así pets y owners no dependen de appointments.
	guard := integrity.NewGuard(petRepo, apptRepo, m)

	ownersSvc := owners.NewService(ownerRepo, guard, locker)
	petsSvc := pets.NewService(petRepo, ownersSvc, guard, locker)
	apptSvc := appointments.NewService(apptRepo, petsSvc, ownersSvc, locker, appointments.WithRecorder(m))

	r.Route("/owners", func(or chi.Router) {
		owners.RegisterRoutes(or, ownersSvc, log)
		or.Get("/{id}/appointments", appointments.OwnerAppointmentsHandler(apptSvc, log))
	})
	r.Route("/pets", func(pr chi.Router) {
		pets.RegisterRoutes(pr, petsSvc, log)
		pr.Get("/{id}/appointments", appointments.PetAppointmentsHandler(apptSvc, log))
	})
	r.Route("/appointments", func(ar chi.Router) {
		appointments.RegisterRoutes(ar, apptSvc, log)
	})

	return r
}
