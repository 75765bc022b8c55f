// Package service exposes the tournament over HTTP: POST a sample and
// get back the chosen confidence interval plus full diagnostics. Every
// request gets a UUID request id, a per-client-IP token-bucket rate
// limit, and is logged at request-scope with its latency.
//
// Grounded on internal/interfaces/http/server.go's router/middleware
// chain and internal/net/ratelimit/limiter.go's per-key limiter map.
package service

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sawpanic/strategyci/internal/annualize"
	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/factory"
	"github.com/sawpanic/strategyci/internal/resultcache"
	"github.com/sawpanic/strategyci/internal/scoring"
	"github.com/sawpanic/strategyci/internal/smalln"
	"github.com/sawpanic/strategyci/internal/statistic"
	"github.com/sawpanic/strategyci/internal/support"
	"github.com/sawpanic/strategyci/internal/tournament"
)

// RequestIDHeader is the response header every request is echoed its
// request id under, matching the teacher's convention of surfacing
// the id for client-side correlation.
const RequestIDHeader = "X-Request-ID"

// limiterSet hands out one rate.Limiter per key (client IP), created
// lazily and kept for the process lifetime.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	return &limiterSet{limiters: make(map[string]*rate.Limiter), rps: rate.Limit(rps), burst: burst}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(s.rps, s.burst)
		s.limiters[key] = l
	}
	return l
}

// Server is the HTTP frontend for one-off tournament evaluations.
type Server struct {
	router   *mux.Router
	limiters *limiterSet
	log      *zerolog.Logger
	master   uint64
	cache    *resultcache.Cache
}

// SetCache attaches a result cache: once set, identical requests
// (same strategy, statistic, sample, confidence level, and replicate
// counts) skip straight to the cached tournament result instead of
// re-running the bootstrap. A nil cache (the default) disables
// memoization entirely.
func (s *Server) SetCache(c *resultcache.Cache) {
	s.cache = c
}

// NewServer builds a Server with its routes and middleware wired.
func NewServer(masterSeed uint64, rps float64, burst int, log *zerolog.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		limiters: newLimiterSet(rps, burst),
		log:      log,
		master:   masterSeed,
	}
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.rateLimitMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.HandleFunc("/v1/confidence-interval", s.handleEvaluate).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return s
}

// ServeHTTP delegates to the underlying router, making Server a
// standard http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(r.Context()))
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.limiters.get(host).Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.log != nil {
			s.log.Info().Str("method", r.Method).Str("path", r.URL.Path).
				Dur("latency", time.Since(start)).Str("request_id", w.Header().Get(RequestIDHeader)).
				Msg("request complete")
		}
	})
}

// evaluateRequest is the POST /v1/confidence-interval body.
type evaluateRequest struct {
	StrategyID string    `json:"strategy_id"`
	Returns    []float64 `json:"returns"`
	Statistic  string    `json:"statistic"`
	CL         float64   `json:"confidence_level"`
	BOuter     int       `json:"b_outer"`
	BlockLen   int       `json:"block_len"`
	Ratio      bool      `json:"ratio_statistic"`

	Hurdle                *float64 `json:"hurdle,omitempty"`
	Annualize             bool     `json:"annualize,omitempty"`
	Timeframe             string   `json:"timeframe,omitempty"`
	IntradayMinutesPerBar int      `json:"intraday_minutes_per_bar,omitempty"`
}

type evaluateResponse struct {
	ChosenMethod string                        `json:"chosen_method"`
	Lower        float64                       `json:"lower"`
	Mean         float64                       `json:"mean"`
	Upper        float64                       `json:"upper"`
	Candidates   int                           `json:"candidate_count"`
	HeavyTailed  bool                          `json:"heavy_tailed"`
	Annualized   *annualize.Triplet            `json:"annualized,omitempty"`
	Diagnostics  ciresult.SelectionDiagnostics `json:"diagnostics"`
}

func statisticFuncFor(name string) statistic.Func {
	switch name {
	case "geomean":
		return statistic.GeoMean
	case "profit_factor":
		return statistic.ProfitFactor
	case "median":
		return statistic.Median
	default:
		return statistic.Mean
	}
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Returns) < 2 {
		http.Error(w, "returns must contain at least 2 observations", http.StatusBadRequest)
		return
	}
	if req.CL == 0 {
		req.CL = 0.9
	}
	if req.BOuter == 0 {
		req.BOuter = 2000
	}

	heavyTailed := smalln.IsHeavyTailed(req.Returns)
	if req.BlockLen == 0 {
		req.BlockLen = smalln.ChooseBlockSmallN(len(req.Returns), heavyTailed)
	}

	cacheKey := resultcache.Key{
		StrategyID: req.StrategyID, Statistic: req.Statistic,
		SampleHash: sampleHash(req.Returns), CL: req.CL,
		BOuter: req.BOuter, BlockLen: req.BlockLen,
	}

	var result ciresult.AutoCIResult
	var candCount int
	cached := false
	if s.cache != nil {
		if hit, ok := s.cache.Get(r.Context(), cacheKey); ok {
			result, cached = hit, true
			candCount = len(result.Candidates)
		}
	}

	if !cached {
		id := factory.Identity{StrategyID: req.StrategyID, StageTag: "service", BlockLen: req.BlockLen}
		bundle := factory.BuildBundle(s.master, id, nil)
		lowerEngineFloors(&bundle, req.BOuter)
		statFn := statisticFuncFor(req.Statistic)
		cands := bundle.RunAll(req.Returns, statFn, req.CL, req.BOuter, ciresult.TwoSided)
		if len(cands) == 0 {
			http.Error(w, "no engine produced a candidate", http.StatusUnprocessableEntity)
			return
		}

		class := scoring.ClassReturnsBased
		if req.Ratio {
			class = scoring.ClassRatio
		}
		profile := scoring.DefaultProfile(class)
		widest := widestOf(cands)
		sup := support.ForStatistic(req.Statistic)
		breakdowns := scoring.Score(cands, profile, widest, support.Violations(cands, sup))

		selected, err := tournament.Select(cands, breakdowns)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		result = selected
		candCount = len(cands)

		if s.cache != nil {
			s.cache.Put(r.Context(), cacheKey, result)
		}
	}

	chosen := result.Chosen.Candidate
	if heavyTailed && len(req.Returns) < 30 {
		if mn, ok := findMethodScored(result.Candidates, ciresult.MethodMOutOfN); ok {
			chosen = smalln.DuelCombine(chosen, mn)
		}
	}
	if req.Hurdle != nil {
		chosen = smalln.NearHurdleCombine(chosen, *req.Hurdle, 0.05)
	}

	var annualized *annualize.Triplet
	if req.Annualize {
		tf, err := parseTimeframe(req.Timeframe)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		k, err := annualize.Factor(tf, req.IntradayMinutesPerBar, 0, 0)
		if err != nil {
			http.Error(w, "annualization factor: "+err.Error(), http.StatusBadRequest)
			return
		}
		t, err := annualize.AnnualizeTriplet(annualize.Triplet{Lower: chosen.Lower, Mean: chosen.Mean, Upper: chosen.Upper}, k, 0, 0)
		if err != nil {
			http.Error(w, "annualize: "+err.Error(), http.StatusBadRequest)
			return
		}
		annualized = &t
	}

	resp := evaluateResponse{
		ChosenMethod: result.ChosenMethod.String(),
		Lower:        chosen.Lower,
		Mean:         chosen.Mean,
		Upper:        chosen.Upper,
		Candidates:   candCount,
		HeavyTailed:  heavyTailed,
		Annualized:   annualized,
		Diagnostics:  result.Diagnostics,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func findMethodScored(cands []ciresult.ScoredCandidate, method ciresult.MethodId) (ciresult.Candidate, bool) {
	for _, c := range cands {
		if c.Method == method {
			return c.Candidate, true
		}
	}
	return ciresult.Candidate{}, false
}

func sampleHash(xs []float64) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, x := range xs {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(x))
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

func parseTimeframe(name string) (annualize.Timeframe, error) {
	switch name {
	case "daily", "":
		return annualize.Daily, nil
	case "weekly":
		return annualize.Weekly, nil
	case "monthly":
		return annualize.Monthly, nil
	case "quarterly":
		return annualize.Quarterly, nil
	case "yearly":
		return annualize.Yearly, nil
	case "intraday":
		return annualize.Intraday, nil
	default:
		return 0, fmt.Errorf("unknown timeframe %q", name)
	}
}

// lowerEngineFloors relaxes each engine's minimum-replicate gate down
// to the caller's requested bOuter (never raising it), so a caller
// asking for a smaller-than-default replicate count for a quick or
// interactive evaluation isn't rejected outright; the tournament's
// effective-B scoring gate still penalizes genuinely low replicate
// counts downstream.
func lowerEngineFloors(bundle *factory.Bundle, bOuter int) {
	clampDown := func(minB int) int {
		if minB == 0 || minB > bOuter {
			if bOuter < 100 {
				return 100
			}
			return bOuter
		}
		return minB
	}
	bundle.Normal.MinB = clampDown(bundle.Normal.MinB)
	bundle.Basic.MinB = clampDown(bundle.Basic.MinB)
	bundle.Percentile.MinB = clampDown(bundle.Percentile.MinB)
	bundle.BCa.MinB = clampDown(bundle.BCa.MinB)
	bundle.MOutOfN.MinB = clampDown(bundle.MOutOfN.MinB)
	bundle.PercentileT.MinBOuter = clampDown(bundle.PercentileT.MinBOuter)
	if bundle.PercentileT.BInner > bOuter && bundle.PercentileT.BInner > 100 {
		bundle.PercentileT.BInner = 100
	}
	if bundle.PercentileT.MinBInner > bundle.PercentileT.BInner {
		bundle.PercentileT.MinBInner = 100
	}
}

func widestOf(cands []ciresult.Candidate) float64 {
	var w float64
	for _, c := range cands {
		if width := c.Upper - c.Lower; width > w {
			w = width
		}
	}
	return w
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
