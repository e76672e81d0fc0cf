package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"ephcli/internal/app"
	apierrors "ephcli/internal/errors"
	"ephcli/pkg/contracts/domain"
)

// ResultsProvider supplies the latest pipeline results. Latest returns nil
// when no run has completed yet.
type ResultsProvider interface {
	Latest() *app.Results
}

// ResultsHandler serves the result tables.
type ResultsHandler struct {
	provider   ResultsProvider
	regionName func(int) string
	logger     *slog.Logger
}

// NewResultsHandler creates a results handler. regionName supplies the
// display name per region code; nil falls back to "Region <code>".
func NewResultsHandler(provider ResultsProvider, regionName func(int) string, logger *slog.Logger) *ResultsHandler {
	if regionName == nil {
		regionName = func(code int) string { return fmt.Sprintf("Region %d", code) }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsHandler{
		provider:   provider,
		regionName: regionName,
		logger:     logger.With(slog.String("component", "results_handler")),
	}
}

// Routes returns the results routes.
func (h *ResultsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/rates", h.GetRates)
	r.Route("/income", func(r chi.Router) {
		r.Get("/general", h.GetGeneralIncome)
		r.Get("/periodic", h.GetPeriodicIncome)
		r.Get("/univariate", h.GetUnivariateIncome)
	})
	r.Get("/participation", h.GetParticipation)

	return r
}

// regionFilter parses the optional ?region= query parameter. The second
// return is false when the parameter was present but invalid, in which case
// the error response has already been rendered.
func regionFilter(w http.ResponseWriter, r *http.Request) (int, bool, bool) {
	raw := r.URL.Query().Get("region")
	if raw == "" {
		return 0, false, true
	}
	region, err := strconv.Atoi(raw)
	if err != nil {
		render.Render(w, r, apierrors.InvalidParameter("region", "region must be an integer code"))
		return 0, false, false
	}
	return region, true, true
}

func (h *ResultsHandler) results(w http.ResponseWriter, r *http.Request) *app.Results {
	results := h.provider.Latest()
	if results == nil {
		render.Render(w, r, apierrors.NewAPIError(http.StatusServiceUnavailable,
			"NO_RESULTS", "No pipeline run has completed yet"))
		return nil
	}
	return results
}

type rateResponse struct {
	domain.RateSummary
	RegionName string `json:"region_name"`
}

// GetRates handles GET /api/rates.
func (h *ResultsHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	results := h.results(w, r)
	if results == nil {
		return
	}
	region, filtered, ok := regionFilter(w, r)
	if !ok {
		return
	}

	out := make([]rateResponse, 0, len(results.Rates))
	for _, s := range results.Rates {
		if filtered && s.Region != region {
			continue
		}
		out = append(out, rateResponse{RateSummary: s, RegionName: h.regionName(s.Region)})
	}
	render.JSON(w, r, out)
}

type incomeResponse struct {
	domain.IncomeSummary
	RegionName string `json:"region_name"`
}

// GetGeneralIncome handles GET /api/income/general.
func (h *ResultsHandler) GetGeneralIncome(w http.ResponseWriter, r *http.Request) {
	results := h.results(w, r)
	if results == nil {
		return
	}
	region, filtered, ok := regionFilter(w, r)
	if !ok {
		return
	}

	out := make([]incomeResponse, 0, len(results.GeneralIncome))
	for _, s := range results.GeneralIncome {
		if filtered && s.Region != region {
			continue
		}
		out = append(out, incomeResponse{IncomeSummary: s, RegionName: h.regionName(s.Region)})
	}
	render.JSON(w, r, out)
}

type periodicIncomeResponse struct {
	domain.PeriodicIncomeSummary
	RegionName string `json:"region_name"`
}

// GetPeriodicIncome handles GET /api/income/periodic.
func (h *ResultsHandler) GetPeriodicIncome(w http.ResponseWriter, r *http.Request) {
	results := h.results(w, r)
	if results == nil {
		return
	}
	region, filtered, ok := regionFilter(w, r)
	if !ok {
		return
	}

	out := make([]periodicIncomeResponse, 0, len(results.PeriodicIncome))
	for _, s := range results.PeriodicIncome {
		if filtered && s.Region != region {
			continue
		}
		out = append(out, periodicIncomeResponse{PeriodicIncomeSummary: s, RegionName: h.regionName(s.Region)})
	}
	render.JSON(w, r, out)
}

type univariateResponse struct {
	domain.UnivariateIncomeSummary
	RegionName string `json:"region_name"`
}

// GetUnivariateIncome handles GET /api/income/univariate.
func (h *ResultsHandler) GetUnivariateIncome(w http.ResponseWriter, r *http.Request) {
	results := h.results(w, r)
	if results == nil {
		return
	}
	region, filtered, ok := regionFilter(w, r)
	if !ok {
		return
	}

	out := make([]univariateResponse, 0, len(results.Univariate))
	for _, s := range results.Univariate {
		if filtered && s.Region != region {
			continue
		}
		out = append(out, univariateResponse{UnivariateIncomeSummary: s, RegionName: h.regionName(s.Region)})
	}
	render.JSON(w, r, out)
}

type participationResponse struct {
	domain.BranchParticipation
	RegionName string `json:"region_name"`
}

// GetParticipation handles GET /api/participation.
func (h *ResultsHandler) GetParticipation(w http.ResponseWriter, r *http.Request) {
	results := h.results(w, r)
	if results == nil {
		return
	}
	region, filtered, ok := regionFilter(w, r)
	if !ok {
		return
	}

	out := make([]participationResponse, 0, len(results.Participation))
	for _, s := range results.Participation {
		if filtered && s.Region != region {
			continue
		}
		out = append(out, participationResponse{BranchParticipation: s, RegionName: h.regionName(s.Region)})
	}
	render.JSON(w, r, out)
}
