package main

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/furkansenharputlu/f-keyfile/config"
	"github.com/furkansenharputlu/f-keyfile/metrics"
	"github.com/furkansenharputlu/f-keyfile/storage"
)

const Version = "0.1"

func intro() {
	logrus.Info("f-keyfile ", Version)
	logrus.Info("Copyright Furkan Şenharputlu 2024")
}

func configPath() string {
	if p := os.Getenv(config.EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	return "config.json"
}

func main() {
	intro()

	if err := config.Global.Load(configPath()); err != nil {
		logrus.WithError(err).Fatal("Couldn't load config")
	}

	level, err := logrus.ParseLevel(config.Global.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid log level")
	}
	logrus.SetLevel(level)

	store, err := storage.Connect(config.Global)
	if err != nil {
		logrus.WithError(err).Fatal("Couldn't connect to storage")
	}
	defer store.Close()

	if config.Global.AdminSecret == "" {
		logrus.Warn("admin_secret is not set, admin endpoints will reject every request")
	}

	api := NewAPI(config.Global, afero.NewOsFs(), store, metrics.NewRegistry())

	o := api.checker.Check()
	if !o.OK() {
		if config.Global.RequireLicense {
			logrus.Fatal(o.Message)
		}
		logrus.Warn(o.Message)
	}

	router := GenerateRouter(api)

	addr := fmt.Sprintf(":%d", config.Global.Port)
	certFile := config.Global.ServerOptions.CertFile
	keyFile := config.Global.ServerOptions.KeyFile

	if config.Global.ServerOptions.EnableTLS {
		srv := &http.Server{
			Addr:         addr,
			Handler:      router,
			TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS12},
			TLSNextProto: make(map[string]func(*http.Server, *tls.Conn, http.Handler), 0),
		}
		logrus.Fatal(srv.ListenAndServeTLS(certFile, keyFile))
	} else {
		logrus.Fatal(http.ListenAndServe(addr, router))
	}
}

func GenerateRouter(a *API) *mux.Router {
	r := mux.NewRouter()
	// Endpoints called by operators
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(a.AuthenticationMiddleware)
	adminRouter.HandleFunc("/checks", a.GetAllChecks).Methods(http.MethodGet)
	adminRouter.HandleFunc("/checks/{id}", a.GetCheck).Methods(http.MethodGet)
	adminRouter.HandleFunc("/checks/{id}/delete", a.DeleteCheck).Methods(http.MethodDelete)
	adminRouter.HandleFunc("/license/body", a.LicenseBody).Methods(http.MethodGet)
	adminRouter.HandleFunc("/license/reload", a.ReloadLicense).Methods(http.MethodPost)

	// Endpoints called by sibling workers of the licensed product
	r.HandleFunc("/license", a.LicenseStatus).Methods(http.MethodGet)
	r.HandleFunc("/license/features/{tag}", a.Feature).Methods(http.MethodGet)
	r.HandleFunc("/license/check", a.CheckLicense).Methods(http.MethodPost)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	return r
}
