package api

import (
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/appointa/appointa-server/cmd/utils"
	"github.com/appointa/appointa-server/service/appointment"
	"github.com/appointa/appointa-server/service/notification"
	"github.com/appointa/appointa-server/service/queue"
	"github.com/appointa/appointa-server/service/schedule"
	"github.com/appointa/appointa-server/service/user"
)

type APIServer struct {
	address string
	db      *gorm.DB
	queue   *queue.Queue
}

func NewApiServer(address string, db *gorm.DB, q *queue.Queue) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
		queue:   q,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	userHandler := user.NewHandler(s.db)
	userHandler.RegisterRoutes(subrouter)

	protected := subrouter.PathPrefix("/").Subrouter()
	protected.Use(utils.AuthMiddleware)

	svc := appointment.NewService(
		appointment.NewStore(s.db),
		appointment.NewUsers(s.db),
		notification.NewNotifier(s.db),
		s.queue,
	)
	appointmentHandler := appointment.NewHandler(svc)
	appointmentHandler.RegisterRoutes(protected)

	notificationHandler := notification.NewHandler(s.db)
	notificationHandler.RegisterRoutes(protected)

	scheduleHandler := schedule.NewHandler(s.db)
	scheduleHandler.RegisterRoutes(protected)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, cors(router))
}
