package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "auth"

// Recorder : счетчики подсистемы аутентификации
type Recorder struct {
	logins          *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	sessionsRevoked *prometheus.CounterVec
	cleanupRuns     *prometheus.CounterVec
	cleanupItems    *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Попытки входа по результату.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_total",
			Help:      "Тихие обновления access токена по результату.",
		}, []string{"result"}),
		sessionsRevoked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_revoked_total",
			Help:      "Деактивированные сессии по причине.",
		}, []string{"reason"}),
		cleanupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_runs_total",
			Help:      "Проходы фоновой очистки по результату.",
		}, []string{"result"}),
		cleanupItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_items_total",
			Help:      "Обработанные очисткой записи по виду.",
		}, []string{"kind"}),
	}

	reg.MustRegister(r.logins, r.refreshes, r.sessionsRevoked, r.cleanupRuns, r.cleanupItems)
	return r
}

func (r *Recorder) LoginAttempt(result string) {
	r.logins.WithLabelValues(result).Inc()
}

func (r *Recorder) TokenRefresh(result string) {
	r.refreshes.WithLabelValues(result).Inc()
}

func (r *Recorder) SessionRevoked(reason string) {
	r.sessionsRevoked.WithLabelValues(reason).Inc()
}

func (r *Recorder) CleanupRun(result string) {
	r.cleanupRuns.WithLabelValues(result).Inc()
}

func (r *Recorder) CleanupItems(kind string, count int) {
	if count <= 0 {
		return
	}
	r.cleanupItems.WithLabelValues(kind).Add(float64(count))
}

// Handler : /metrics для заданного реестра
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
