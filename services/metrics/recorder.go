package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ready4exam/platform/core/quiz"
	"github.com/ready4exam/platform/core/user"
)

// Recorder counts the analytics events of the platform.
type Recorder struct {
	registry        *prometheus.Registry
	quizCompleted   *prometheus.CounterVec
	questionsServed *prometheus.CounterVec
	profileCreated  *prometheus.CounterVec
}

var (
	_ quiz.EventRecorder    = (*Recorder)(nil)
	_ user.ProfileRecorder = (*Recorder)(nil)
)

func NewRecorder(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		quizCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_completed_total",
			Help:      "Quizzes saved, by mode and tenant type.",
		}, []string{"mode", "tenant"}),
		questionsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_questions_served_total",
			Help:      "Questions served, by quiz mode.",
		}, []string{"mode"}),
		profileCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_created_total",
			Help:      "Profiles created, by role and tenant type.",
		}, []string{"role", "tenant"}),
	}
	r.registry.MustRegister(
		r.quizCompleted,
		r.questionsServed,
		r.profileCreated,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) QuizCompleted(mode, tenantType string) {
	r.quizCompleted.WithLabelValues(mode, tenantType).Inc()
}

func (r *Recorder) QuestionsServed(mode string, n int) {
	r.questionsServed.WithLabelValues(mode).Add(float64(n))
}

func (r *Recorder) ProfileCreated(role, tenantType string) {
	r.profileCreated.WithLabelValues(role, tenantType).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
