// Package paymentlist реализует HTTP-обработчик списка платежей.
//
// Список фильтруется по курсу, уроку и способу оплаты через query-параметры
// и упорядочен по дате оплаты.
package paymentlist

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-platform/internal/http-server/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/http-server/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
	"github.com/magabrotheeeer/course-platform/internal/services/payment"
)

const defaultLimit = 20

// Service описывает интерфейс бизнес-логики списка платежей.
type Service interface {
	List(ctx context.Context, actor permissions.Actor, filter models.PaymentFilter, limit, offset int) ([]*models.Payment, error)
}

// Handler управляет HTTP-запросами на получение списка платежей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список платежей
// @Description Возвращает список платежей с фильтрами по курсу, уроку и способу оплаты, упорядоченный по дате.
// @Tags Payments
// @Produce  json
// @Param course_id query int false "Фильтр по курсу"
// @Param lesson_id query int false "Фильтр по уроку"
// @Param payment_method query string false "Фильтр по способу оплаты (cash или transfer)"
// @Param limit query int false "Максимум записей (по умолчанию 20)"
// @Param offset query int false "Смещение (по умолчанию 0)"
// @Success 200 {object} map[string]any "Список платежей"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении списка"
// @Router /payments/list [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var filter models.PaymentFilter
	if v := r.URL.Query().Get("course_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.CourseID = &n
		}
	}
	if v := r.URL.Query().Get("lesson_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.LessonID = &n
		}
	}
	if v := r.URL.Query().Get("payment_method"); v != "" {
		filter.PaymentMethod = &v
	}

	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}

	actor, ok := middlewarectx.ActorFromContext(r.Context())
	if !ok {
		log.Error("actor not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	payments, err := h.service.List(r.Context(), actor, filter, limit, offset)
	if errors.Is(err, payment.ErrForbidden) {
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	}
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list payments"))
		return
	}

	log.Info("payments listed", slog.Int("count", len(payments)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"count":    len(payments),
		"payments": payments,
	}))
}
