package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/furkansenharputlu/f-keyfile/lcs"
)

// Registry holds the license metrics of one process.
type Registry struct {
	LicenseValid     prometheus.Gauge
	LicenseExpiresAt prometheus.Gauge
	LicenseChecks    *prometheus.CounterVec

	registry *prometheus.Registry
}

func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.LicenseValid = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "fkeyfile_license_valid",
			Help: "Whether a verified license is held (1=yes, 0=no)",
		},
	)

	r.LicenseExpiresAt = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "fkeyfile_license_expires_at_timestamp_seconds",
			Help: "End of the license's last valid day as Unix timestamp, 0 if it never expires",
		},
	)

	r.LicenseChecks = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fkeyfile_license_checks_total",
			Help: "Total number of license checks by status and error kind",
		},
		[]string{"status", "kind"},
	)

	return r
}

// Observe records one check outcome. It has the signature of an lcs observer.
func (r *Registry) Observe(o lcs.Outcome) {
	kind := ""
	if k := o.Kind(); k != lcs.KindNone {
		kind = k.String()
	}
	r.LicenseChecks.WithLabelValues(string(o.Status), kind).Inc()

	if !o.OK() {
		r.LicenseValid.Set(0)
		r.LicenseExpiresAt.Set(0)
		return
	}

	r.LicenseValid.Set(1)
	if at, ok := o.License.ExpiresAt(time.Local); ok {
		r.LicenseExpiresAt.Set(float64(at.Unix()))
	} else {
		r.LicenseExpiresAt.Set(0)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
