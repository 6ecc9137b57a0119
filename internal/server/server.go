package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Tomlord1122/todo-items/internal/config"
	"github.com/Tomlord1122/todo-items/internal/database"
	"github.com/Tomlord1122/todo-items/internal/service"
)

type Server struct {
	todoService service.TodoService
	itemService service.ItemService
	db          database.Service
}

// New returns a Server without an HTTP listener, for use with httptest.
func New(todoService service.TodoService, itemService service.ItemService, dbService database.Service) *Server {
	return &Server{
		todoService: todoService,
		itemService: itemService,
		db:          dbService,
	}
}

func NewServer(cfg config.Config, todoService service.TodoService, itemService service.ItemService, dbService database.Service) *http.Server {
	appServer := New(todoService, itemService, dbService)

	handler := appServer.RegisterRoutes()
	if cfg.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "todo-items")
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return server
}
