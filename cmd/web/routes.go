package main

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/AdamBeresnev/tournament-history/internal/config"
	"github.com/AdamBeresnev/tournament-history/internal/history"
	"github.com/AdamBeresnev/tournament-history/internal/httputil"
	"github.com/AdamBeresnev/tournament-history/internal/metrics"
	"github.com/AdamBeresnev/tournament-history/internal/middleware"
	"github.com/AdamBeresnev/tournament-history/internal/service"
	"github.com/AdamBeresnev/tournament-history/internal/store"
	"github.com/AdamBeresnev/tournament-history/internal/upload"
	"github.com/AdamBeresnev/tournament-history/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
)

// Multipart parts beyond this many bytes are spooled to temporary files.
const multipartMemory = 8 << 20

type application struct {
	cfg         *config.Config
	tournaments *service.TournamentService
	metrics     *metrics.HTTPMetrics
	serveDisk   bool
}

func newApplication(cfg *config.Config, tournamentStore store.Store, images *upload.Images) *application {
	return &application{
		cfg:         cfg,
		tournaments: service.NewTournamentService(tournamentStore, images),
		metrics:     metrics.NewHTTPMetrics(prometheus.NewRegistry()),
		serveDisk:   cfg.UploadBackend == config.BackendDisk,
	}
}

func (app *application) page() views.Page {
	return views.Page{BasePath: app.cfg.BasePath}
}

func (app *application) tournamentURL(id string) string {
	return app.cfg.BasePath + "/tournament/" + id
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(app.metrics.Middleware)
	if len(app.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: app.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	routes := func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		r.Handle("/metrics", app.metrics.Handler())

		if app.serveDisk {
			r.Handle("/uploads/*", uploadsHandler(app.cfg.UploadFolder, app.cfg.BasePath+"/uploads/"))
		}

		r.Get("/", app.index)
		r.Get("/tournament/{id}", app.viewTournament)
		r.Get("/add", app.addForm)
		r.Get("/edit/{id}", app.editForm)

		r.Group(func(r chi.Router) {
			r.Use(middleware.LimitBody(app.cfg.MaxUploadBytes))

			r.Post("/add", app.addTournament)
			r.Post("/edit/{id}", app.editTournament)
			r.Post("/delete/{id}", app.deleteTournament)
		})
	}

	if app.cfg.BasePath == "" {
		routes(r)
	} else {
		r.Route(app.cfg.BasePath, routes)
	}

	return r
}

func (app *application) index(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.List(r.Context())
	if err != nil {
		httputil.InternalServerError(w, r, "Failed to list tournaments", err)
		return
	}
	list := views.NewTournamentViews(tournaments, app.tournaments.ImageURL)
	views.Render(w, r, views.Index(app.page(), list))
}

func (app *application) viewTournament(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.lookup(w, r)
	if !ok {
		return
	}
	view := views.NewTournamentView(*tournament, app.tournaments.ImageURL)
	views.Render(w, r, views.TournamentDetail(app.page(), view))
}

func (app *application) addForm(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, views.AddTournamentPage(app.page()))
}

func (app *application) editForm(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.lookup(w, r)
	if !ok {
		return
	}
	view := views.NewTournamentView(*tournament, app.tournaments.ImageURL)
	views.Render(w, r, views.EditTournamentPage(app.page(), view))
}

// lookup loads the tournament named in the path for the HTML views, writing
// the plain-text not-found response itself.
func (app *application) lookup(w http.ResponseWriter, r *http.Request) (*history.Tournament, bool) {
	id := chi.URLParam(r, "id")
	tournament, err := app.tournaments.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTournamentNotFound) {
			httputil.NotFound(w, r, err)
			return nil, false
		}
		httputil.InternalServerError(w, r, "Failed to get tournament", err)
		return nil, false
	}
	return tournament, true
}

func (app *application) addTournament(w http.ResponseWriter, r *http.Request) {
	fields, image, err := parseTournamentForm(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	defer image.close()

	tournament, err := app.tournaments.Create(r.Context(), fields, image.file)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, r, http.StatusOK, httputil.Envelope{
		Success:      true,
		TournamentID: tournament.ID,
		RedirectURL:  app.tournamentURL(tournament.ID),
	})
}

func (app *application) editTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := app.tournaments.Get(r.Context(), id); err != nil {
		app.writeError(w, r, err)
		return
	}

	fields, image, err := parseTournamentForm(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	defer image.close()

	tournament, err := app.tournaments.Update(r.Context(), id, fields, image.file)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, r, http.StatusOK, httputil.Envelope{
		Success:      true,
		TournamentID: tournament.ID,
		RedirectURL:  app.tournamentURL(tournament.ID),
	})
}

func (app *application) deleteTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := app.tournaments.Delete(r.Context(), id); err != nil {
		app.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, r, http.StatusOK, httputil.Envelope{
		Success:     true,
		RedirectURL: app.cfg.BasePath + "/",
	})
}

// formError marks a request whose body could not be parsed.
type formError struct {
	err error
}

func (e *formError) Error() string { return fmt.Sprintf("parse form: %v", e.err) }
func (e *formError) Unwrap() error { return e.err }

// writeError is the single place where failures of the JSON endpoints are
// turned into responses. Anything unclassified becomes a 500 carrying the
// cause in its message.
func (app *application) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	var tooLarge *http.MaxBytesError
	var badForm *formError

	switch {
	case errors.As(err, &validationErr):
		httputil.JSONError(w, r, http.StatusBadRequest, validationErr.Message, nil)
	case errors.Is(err, service.ErrTournamentNotFound):
		httputil.JSONError(w, r, http.StatusNotFound, httputil.NotFoundMessage, nil)
	case errors.As(err, &tooLarge):
		httputil.JSONError(w, r, http.StatusRequestEntityTooLarge, httputil.TooLargeMessage, err)
	case errors.As(err, &badForm):
		httputil.JSONError(w, r, http.StatusBadRequest, httputil.InvalidFormMessage, err)
	default:
		httputil.JSONError(w, r, http.StatusInternalServerError, httputil.InternalErrorPrefix+err.Error(), err)
	}
}

type formImage struct {
	file   *upload.File
	closer io.Closer
}

func (i formImage) close() {
	if i.closer != nil {
		i.closer.Close()
	}
}

func parseTournamentForm(r *http.Request) (history.Fields, formImage, error) {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return history.Fields{}, formImage{}, err
		}
		return history.Fields{}, formImage{}, &formError{err: err}
	}

	fields := history.Fields{
		TournamentName: r.PostFormValue("tournament_name"),
		Date:           r.PostFormValue("date"),
		Organizer:      r.PostFormValue("organizer"),
		FirstPlace:     r.PostFormValue("first_place"),
		SecondPlace:    r.PostFormValue("second_place"),
		ThirdPlace:     r.PostFormValue("third_place"),
		Description:    r.PostFormValue("description"),
	}

	file, header, err := r.FormFile("bracket_image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return fields, formImage{}, nil
		}
		return history.Fields{}, formImage{}, &formError{err: err}
	}

	return fields, formImage{file: fileFromHeader(file, header), closer: file}, nil
}

func fileFromHeader(file multipart.File, header *multipart.FileHeader) *upload.File {
	return &upload.File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
}
