// Package courseplatform предоставляет маршруты для основного приложения.
package courseplatform

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/auth/login"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/auth/register"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/course/coursecreate"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/course/courselist"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/course/courseread"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/course/courseremove"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/course/courseupdate"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/health"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/lesson/lessoncreate"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/lesson/lessonlist"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/lesson/lessonread"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/lesson/lessonremove"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/lesson/lessonupdate"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/payment/paymentstatus"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/subscription/toggle"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/user/userread"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/user/userremove"
	"github.com/magabrotheeeer/course-platform/internal/http-server/handlers/user/userupdate"
	"github.com/magabrotheeeer/course-platform/internal/http-server/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/lib/jwt"
	courseservice "github.com/magabrotheeeer/course-platform/internal/services/course"
	lessonservice "github.com/magabrotheeeer/course-platform/internal/services/lesson"
	paymentservice "github.com/magabrotheeeer/course-platform/internal/services/payment"
	subscriptionservice "github.com/magabrotheeeer/course-platform/internal/services/subscription"
	userservice "github.com/magabrotheeeer/course-platform/internal/services/user"
	"github.com/magabrotheeeer/course-platform/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, db *repository.Storage,
	userService *userservice.UserService,
	courseService *courseservice.CourseService,
	lessonService *lessonservice.LessonService,
	subscriptionService *subscriptionservice.SubscriptionService,
	paymentService *paymentservice.PaymentService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, userService).ServeHTTP)
		r.Post("/login", login.New(logger, userService).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/courses", coursecreate.New(logger, courseService).ServeHTTP)
			r.Get("/courses", courselist.New(logger, courseService).ServeHTTP)
			r.Get("/courses/{id}", courseread.New(logger, courseService).ServeHTTP)
			r.Put("/courses/{id}", courseupdate.New(logger, courseService).ServeHTTP)
			r.Delete("/courses/{id}", courseremove.New(logger, courseService).ServeHTTP)

			r.Post("/lessons", lessoncreate.New(logger, lessonService).ServeHTTP)
			r.Get("/lessons", lessonlist.New(logger, lessonService).ServeHTTP)
			r.Get("/lessons/{id}", lessonread.New(logger, lessonService).ServeHTTP)
			r.Put("/lessons/{id}", lessonupdate.New(logger, lessonService).ServeHTTP)
			r.Delete("/lessons/{id}", lessonremove.New(logger, lessonService).ServeHTTP)

			r.Post("/subscriptions/toggle", toggle.New(logger, subscriptionService).ServeHTTP)

			r.Post("/payments", paymentcreate.New(logger, paymentService).ServeHTTP)
			r.Get("/payments/list", paymentlist.New(logger, paymentService).ServeHTTP)
			r.Get("/payments/{id}/status", paymentstatus.New(logger, paymentService).ServeHTTP)

			r.Get("/users/{uid}", userread.New(logger, userService).ServeHTTP)
			r.Put("/users/{uid}", userupdate.New(logger, userService).ServeHTTP)
			r.Delete("/users/{uid}", userremove.New(logger, userService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
