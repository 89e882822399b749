// handler.go — общие вспомогательные функции HTTP-обработчиков:
// запись JSON, трансляция ошибок сервисного слоя в ответы API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/Salama0/ITI-Examination-System/internal/api/errors"
	"github.com/Salama0/ITI-Examination-System/internal/service"
)

// dateLayout — формат дат экзаменов в ответах.
const dateLayout = time.DateOnly

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError транслирует ошибку сервисного слоя в ответ API.
// Детали ошибки пишутся только в лог.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.Unauthorized(w, apierrors.MsgBadCredentials)
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, apierrors.MsgInvalidToken)
	case errors.Is(err, service.ErrUpstreamUnavailable):
		apierrors.UpstreamUnavailable(w)
	default:
		logger.Error("Необработанная ошибка сервиса", slog.String("error", err.Error()))
		apierrors.InternalError(w)
	}
}

// formatDate форматирует дату как YYYY-MM-DD; nil остаётся nil.
func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
