package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prometheusNamespace = "memberd"

var (
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: prometheusNamespace,
		Name:      "logins_total",
		Help:      "Total amount of completed logins",
	}, []string{"type"})

	loginFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: prometheusNamespace,
		Name:      "login_failures_total",
		Help:      "Total amount of failed login attempts",
	})
)
