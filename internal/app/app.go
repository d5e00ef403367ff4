package app

import (
	"net/http"

	"github.com/kirthika/stocklens/internal/adapters/httpserver"
	"github.com/kirthika/stocklens/internal/adapters/repo/mysql"
	"github.com/kirthika/stocklens/internal/config"
	"github.com/kirthika/stocklens/internal/tenant"
	"github.com/kirthika/stocklens/internal/usecase"
)

type App struct {
	Tenants *tenant.Registry
	Reports *usecase.ReportUC
}

func NewApp(cfg config.Datastore) *App {
	registry := tenant.NewRegistry()
	loader := mysql.NewFactLoader(mysql.NewProvider(cfg))

	return &App{
		Tenants: registry,
		Reports: &usecase.ReportUC{Schemas: registry, Facts: loader},
	}
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.Reports)
}
