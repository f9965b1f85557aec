package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/furkansenharputlu/f-keyfile/auth"
	"github.com/furkansenharputlu/f-keyfile/client"
	"github.com/furkansenharputlu/f-keyfile/config"
	"github.com/furkansenharputlu/f-keyfile/lcs"
	"github.com/furkansenharputlu/f-keyfile/metrics"
	"github.com/furkansenharputlu/f-keyfile/storage"
)

// API serves the license state of this process.
type API struct {
	conf    *config.Config
	checker *lcs.Checker
	store   storage.Handler
	metrics *metrics.Registry

	mu   sync.RWMutex
	last lcs.Outcome
}

// NewAPI wires a checker reading the license through fs. Every check is
// recorded in store and reg.
func NewAPI(c *config.Config, fs afero.Fs, store storage.Handler, reg *metrics.Registry, opts ...lcs.Option) *API {
	a := &API{conf: c, store: store, metrics: reg}

	opts = append(opts,
		lcs.WithObserver(a.observe),
		lcs.WithObserver(storage.Recorder(store)),
		lcs.WithObserver(reg.Observe),
	)
	a.checker = lcs.CheckerFromConfig(c, fs, opts...)

	return a
}

// observe keeps the newest outcome. Observers run after the checker lock is
// released, so concurrent checks may report out of order.
func (a *API) observe(o lcs.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if o.At.Before(a.last.At) {
		return
	}
	a.last = o
}

func (a *API) lastOutcome() lcs.Outcome {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

func (a *API) LicenseStatus(w http.ResponseWriter, r *http.Request) {
	s := client.LicenseStatus{Product: a.conf.Product}

	last := a.lastOutcome()
	if !last.At.IsZero() {
		s.CheckedAt = &last.At
	}

	l := a.checker.License()
	if l == nil {
		s.Message = last.Message
		if k := last.Kind(); k != lcs.KindNone {
			s.Kind = k.String()
		}
		ReturnResponse(w, http.StatusOK, s)
		return
	}

	s.Valid = true
	s.ExpiresAfter, _ = l.ExpiresAfter()
	s.Cloud = l.IsCloud()
	s.Heroku = l.IsHeroku()
	s.TrackUsage = l.ShouldTrackUsage()
	s.Fields = l.Fields()

	ReturnResponse(w, http.StatusOK, s)
}

func (a *API) Feature(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]

	ReturnResponse(w, http.StatusOK, client.Feature{
		Tag:     tag,
		Enabled: a.checker.HasFeature(tag),
	})
}

func (a *API) CheckLicense(w http.ResponseWriter, r *http.Request) {
	writeCheckResult(w, a.checker.Check())
}

// ReloadLicense drops the held license and validates the source again.
func (a *API) ReloadLicense(w http.ResponseWriter, r *http.Request) {
	a.checker.Reset()
	writeCheckResult(w, a.checker.Check())
}

func writeCheckResult(w http.ResponseWriter, o lcs.Outcome) {
	res := client.CheckResult{
		Valid:   o.OK(),
		Status:  string(o.Status),
		Message: o.Message,
	}
	if k := o.Kind(); k != lcs.KindNone {
		res.Kind = k.String()
	}

	statusCode := http.StatusOK
	if !o.OK() {
		statusCode = http.StatusUnauthorized
	}

	ReturnResponse(w, statusCode, res)
}

func (a *API) LicenseBody(w http.ResponseWriter, r *http.Request) {
	l := a.checker.License()
	if l == nil {
		ReturnError(w, http.StatusNotFound, "no valid license is held")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(l.Body()))
}

func (a *API) GetAllChecks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		var err error
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			ReturnError(w, http.StatusBadRequest, "limit should be a non-negative integer")
			return
		}
	}

	records, err := a.store.GetAll(limit)
	if err != nil {
		logrus.WithError(err).Error("Error while getting checks")
		ReturnError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ReturnResponse(w, http.StatusOK, records)
}

func (a *API) GetCheck(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := a.store.Get(id)
	if err == storage.ErrNotFound {
		ReturnError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		ReturnError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ReturnResponse(w, http.StatusOK, record)
}

func (a *API) DeleteCheck(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := a.store.DeleteByID(id)
	if err == storage.ErrNotFound {
		ReturnError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		logrus.WithError(err).Error("Error while deleting check")
		ReturnError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ReturnResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Check successfully deleted",
	})
}

func ReturnResponse(w http.ResponseWriter, statusCode int, resp interface{}) {
	bytes, _ := json.Marshal(resp)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(bytes)
}

func ReturnError(w http.ResponseWriter, statusCode int, errMsg string) {
	ReturnResponse(w, statusCode, map[string]interface{}{
		"error": errMsg,
	})
}

// AuthenticationMiddleware admits requests carrying a valid admin bearer
// token signed with admin_secret.
func (a *API) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			ReturnError(w, http.StatusUnauthorized, "Authorization failed")
			return
		}

		if err := auth.VerifyAdminToken(a.conf.AdminSecret, token); err != nil {
			logrus.WithError(err).Debug("Admin token rejected")
			ReturnError(w, http.StatusUnauthorized, "Authorization failed")
			return
		}

		next.ServeHTTP(w, r)
	})
}
