package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/gridops/nc-check/suite"
)

const (
	MetricsNamespace = "ncheck"
)

var (
	Debug                bool = true
	validStatuses             = []suite.Kind{suite.KindPass, suite.KindWarn, suite.KindFail, suite.KindSkip}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "checks_total",
		Help:      "Count of atomic check outcomes",
	}, []string{
		"dataset",
		"run_id",
		"suite",
		"name",
		"status",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of check runs",
	}, []string{
		"dataset",
		"run_id",
		"status",
	})

	runChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_checks_total",
		Help:      "Total number of checks per run",
	}, []string{
		"dataset",
		"run_id",
	})

	runChecksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_checks_failed",
		Help:      "Number of failed checks per run",
	}, []string{
		"dataset",
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration",
		Help:      "Duration of check runs",
	}, []string{
		"dataset",
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		logrus.WithFields(logrus.Fields{
			"m":     "errors_total",
			"error": error,
		}).Debug("metric inc")
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordCheck(dataset string, runID string, suiteKey string, checkName string, status suite.Kind) {
	if !isValidStatus(status) {
		logrus.WithField("status", status).Error("RecordCheck - invalid status")
		return
	}
	if Debug {
		logrus.WithFields(logrus.Fields{
			"m":       "checks_total",
			"dataset": dataset,
			"run_id":  runID,
			"suite":   suiteKey,
			"check":   checkName,
			"status":  status,
		}).Debug("metric inc")
	}
	checksTotal.WithLabelValues(dataset, runID, suiteKey, checkName, string(status)).Inc()
}

func RecordRun(
	dataset string,
	runID string,
	status string,
	total int,
	failed int,
	duration time.Duration,
) {
	runResults.WithLabelValues(dataset, runID, status).Set(1)
	runChecksTotal.WithLabelValues(dataset, runID).Add(float64(total))
	runChecksFailed.WithLabelValues(dataset, runID).Add(float64(failed))
	runDuration.WithLabelValues(dataset, runID).Set(duration.Seconds())
}

func isValidStatus(status suite.Kind) bool {
	return slices.Contains(validStatuses, status)
}
