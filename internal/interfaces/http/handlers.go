package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CryptoSharon/hive-stats/internal/persistence"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ok"
	code := http.StatusOK
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.respond(w, "summary", func() (interface{}, error) {
		return s.engine.GetSummary(r.Context())
	})
}

func (s *Server) handleYearOverYear(w http.ResponseWriter, r *http.Request) {
	s.respond(w, "yoy", func() (interface{}, error) {
		return s.engine.GetYearOverYear(r.Context())
	})
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	s.respond(w, "correlation", func() (interface{}, error) {
		return s.engine.GetCorrelation(r.Context())
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	s.respond(w, "distribution", func() (interface{}, error) {
		return s.engine.GetActivityDistribution(r.Context())
	})
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	yr, err := parseYearRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respond(w, "weekly", func() (interface{}, error) {
		return s.engine.ScanWeeklyStats(r.Context(), yr)
	})
}

// respond runs one insight computation, times it, and maps its error to a
// status code.
func (s *Server) respond(w http.ResponseWriter, name string, compute func() (interface{}, error)) {
	start := time.Now()
	result, err := compute()
	if s.metrics != nil {
		s.metrics.InsightDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if errors.Is(err, persistence.ErrInsufficientData) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Error().Err(err).Str("insight", name).Msg("insight query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	json.NewEncoder(w).Encode(result)
}

func parseYearRange(r *http.Request) (persistence.YearRange, error) {
	var yr persistence.YearRange
	var err error

	if from := r.URL.Query().Get("from"); from != "" {
		if yr.From, err = strconv.Atoi(from); err != nil {
			return yr, errors.New("from must be a year")
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if yr.To, err = strconv.Atoi(to); err != nil {
			return yr, errors.New("to must be a year")
		}
	}
	if yr.From != 0 && yr.To != 0 && yr.From > yr.To {
		return yr, errors.New("from is after to")
	}
	return yr, nil
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
