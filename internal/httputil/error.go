package httputil

import (
	"log/slog"
	"net/http"
)

// User-facing messages.
const (
	NotFoundMessage     = "大会が見つかりません"
	InternalErrorPrefix = "エラーが発生しました: "
	TooLargeMessage     = "ファイルサイズが大きすぎます"
	InvalidFormMessage  = "フォームデータが不正です"
)

func requestAttrs(r *http.Request) []any {
	return []any{"method", r.Method, "path", r.URL.Path}
}

func InternalServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, append(requestAttrs(r), "error", err)...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// NotFound answers with the plain-text not-found message.
func NotFound(w http.ResponseWriter, r *http.Request, err error) {
	attrs := requestAttrs(r)
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	slog.WarnContext(r.Context(), "not found", attrs...)
	http.Error(w, NotFoundMessage, http.StatusNotFound)
}
