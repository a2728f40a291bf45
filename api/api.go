// Package api is the HTTP surface of the lead generation service.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/osr-alliance/backend-lib-leadgen/analyzer"
	"github.com/osr-alliance/backend-lib-leadgen/store"
)

type Config struct {
	Store    store.Store
	Analyzer analyzer.Analyzer // nil = analyzer.Local

	APIKeys    map[string]string // key -> role; empty disables the key check
	CORSOrigin string            // "" = "*"
	Logger     *logrus.Entry
}

type api struct {
	store    store.Store
	analyzer analyzer.Analyzer
	log      *logrus.Entry
}

// New returns the router wrapped in the logging, CORS and API key middleware.
func New(conf *Config) http.Handler {
	if conf.Logger == nil {
		conf.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if conf.Analyzer == nil {
		conf.Analyzer = analyzer.Local{}
	}
	if conf.CORSOrigin == "" {
		conf.CORSOrigin = "*"
	}

	a := &api{
		store:    conf.Store,
		analyzer: conf.Analyzer,
		log:      conf.Logger,
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r := router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/health", a.Health).Methods(http.MethodGet)
	r.HandleFunc("/analyze", a.Analyze).Methods(http.MethodPost)
	r.HandleFunc("/campaign", a.Campaign).Methods(http.MethodPost)

	r.HandleFunc("/sessions", a.CreateSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", a.GetSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", a.DeleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/lists/{kind}", a.GetList).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/lists/{kind}/leads", a.AddLead).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/lists/{kind}/leads/{index:[0-9]+}", a.RemoveLead).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/score", a.Score).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/pitch", a.Pitch).Methods(http.MethodPost)

	var h http.Handler = router
	h = apiKeyMiddleware(conf.APIKeys, conf.Logger, h)
	h = corsMiddleware(conf.CORSOrigin, h)
	h = loggingMiddleware(conf.Logger, h)
	return h
}
