package middleware

import (
	"context"
	"net/http"
)

// contextKey - приватный тип ключей контекста пакета
type contextKey string

const userIDKey contextKey = "user_id"

// Identity - middleware привязки запроса к пользователю
//
// Аутентификация выполняется внешним auth-прокси, который проставляет
// заголовок X-User-ID проверенным запросам. Middleware извлекает его
// в context; запрос без пользователя отклоняется с 401.
//
// Для локальной разработки без прокси пользователь берется из
// query-параметра user_id
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			userID = r.URL.Query().Get("user_id")
		}
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID возвращает пользователя запроса, установленного Identity
func UserID(r *http.Request) string {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		return v
	}
	return ""
}
