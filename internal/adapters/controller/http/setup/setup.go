package setup

import (
	"net/http"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/admin"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/auth"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/events"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/host"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/images"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/live"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/middlewares"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/response"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/user"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/spf13/viper"
)

func Setup(a *app.App) {
	middle := middlewares.New(a)
	authHandler := auth.New(a)
	userHandler := user.New(a)
	eventsHandler := events.New(a)
	hostHandler := host.New(a)
	adminHandler := admin.New(a)
	imagesHandler := images.New(a)
	liveHandler := live.New(a)

	r := a.Router
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middle.Logger)
	r.Use(middlewares.Trace)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   viper.GetStringSlice("service.http.allowed-origins"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authorized := r.With(middle.Authorized)

	authHandler.AuthSetup(r, authorized)
	adminHandler.AdminSetup(r, authorized)
	imagesHandler.ImagesSetup(r)

	userHandler.UserSetup(authorized)
	eventsHandler.EventsSetup(authorized)
	hostHandler.HostSetup(authorized)
	liveHandler.LiveSetup(authorized)
}
