// Package paymentstatus реализует HTTP-обработчик опроса статуса платежа.
//
// Обработчик идемпотентен: он опрашивает платёжный шлюз, обновляет локально
// сохранённый статус сессии и возвращает его. Платежи здесь не создаются.
package paymentstatus

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-platform/internal/http-server/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/services/payment"
)

// Service описывает интерфейс бизнес-логики опроса статуса платежа.
type Service interface {
	RefreshStatus(ctx context.Context, id int) (string, error)
}

// Handler управляет HTTP-запросами на опрос статуса платежа.
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
// @Summary Опросить статус платежа
// @Description Запрашивает статус платёжной сессии у шлюза, сохраняет и возвращает его.
// @Tags Payments
// @Produce  json
// @Param id path int true "ID платежа"
// @Success 200 {object} map[string]any "Текущий статус платежа"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера или платёжного шлюза"
// @Router /payments/{id}/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.status"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid payment id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payment id"))
		return
	}

	status, err := h.service.RefreshStatus(r.Context(), id)
	if errors.Is(err, payment.ErrNotFound) {
		log.Error("payment not found", slog.Int("id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("payment not found"))
		return
	}
	if err != nil {
		log.Error("failed to refresh payment status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not refresh payment status"))
		return
	}

	log.Info("payment status refreshed", slog.Int("id", id), slog.String("status", status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment_id": id,
		"status":     status,
	}))
}
