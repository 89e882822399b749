// cors.go — CORS для браузерного frontend.
// Разрешённые origins задаются конфигурацией (EXAM_CORS_ORIGINS),
// credentials разрешены, preflight завершается без вызова обработчика.
package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// corsMaxAge — время кэширования preflight в браузере, секунды.
const corsMaxAge = 600

// CORS возвращает middleware go-chi/cors для разрешённых origins.
// Завершающий "/" в origin из конфигурации отбрасывается.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins = append(origins, strings.TrimRight(o, "/"))
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderRequestID},
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	})
}
