package handlers

import (
	"net/http"

	"taskman/middleware"
	"taskman/token"
)

// Routes wires the full API surface onto a ServeMux. Task routes sit
// behind the bearer-token guard; auth routes do not.
func Routes(auth *Auth, tasks *Tasks, tokens *token.Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Task Management API is running"))
	})

	mux.HandleFunc("POST /auth/register", auth.Register)
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("POST /auth/refresh", auth.Refresh)
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("POST /auth/forgot-password", auth.ForgotPassword)
	mux.HandleFunc("POST /auth/reset-password", auth.ResetPassword)

	guard := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(tokens, h)
	}
	mux.Handle("GET /tasks", guard(tasks.List))
	mux.Handle("POST /tasks", guard(tasks.Create))
	mux.Handle("GET /tasks/{id}", guard(tasks.Get))
	mux.Handle("PATCH /tasks/{id}", guard(tasks.Update))
	mux.Handle("DELETE /tasks/{id}", guard(tasks.Delete))
	mux.Handle("PATCH /tasks/{id}/toggle", guard(tasks.Toggle))

	return mux
}
